package debug

import (
	"reflect"
	"unsafe"
)

// SizeOf approximates the memory reachable from v in bytes.
// Shared pointers are counted once.
func SizeOf(v any) uint64 {
	return sizeOf(reflect.ValueOf(v), make(map[uintptr]bool))
}

type fieldSize struct {
	name string
	size uint64
}

func fieldSizes(v any) []fieldSize {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Struct {
		return nil
	}

	t := rv.Type()
	out := make([]fieldSize, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		out = append(out, fieldSize{
			name: t.Field(i).Name,
			size: sizeOf(rv.Field(i), make(map[uintptr]bool)),
		})
	}

	return out
}

func sizeOf(v reflect.Value, seen map[uintptr]bool) uint64 {
	if !v.IsValid() {
		return 0
	}

	if v.Kind() == reflect.Ptr {
		ptrSize := uint64(unsafe.Sizeof(uintptr(0)))
		if v.IsNil() || seen[v.Pointer()] {
			return ptrSize
		}
		seen[v.Pointer()] = true

		return ptrSize + sizeOf(v.Elem(), seen)
	}

	size := uint64(v.Type().Size())

	switch v.Kind() {
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			size += sizeOf(v.Index(i), seen)
		}
	case reflect.String:
		size += uint64(v.Len())
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			size += sizeOf(iter.Key(), seen) + sizeOf(iter.Value(), seen)
		}
	case reflect.Struct:
		// The struct's own size already covers its fields inline; only add
		// what they reference.
		for i := 0; i < v.NumField(); i++ {
			size += sizeOf(v.Field(i), seen) - uint64(v.Field(i).Type().Size())
		}
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			size += sizeOf(v.Index(i), seen) - uint64(v.Index(i).Type().Size())
		}
	case reflect.Interface:
		if !v.IsNil() {
			size += sizeOf(v.Elem(), seen)
		}
	}

	return size
}
