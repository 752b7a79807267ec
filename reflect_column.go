package excelei

import (
	"reflect"
	"strings"
)

// DescribeMember resolves member on typ by reflection. member is a field name,
// a promoted field name, a dotted field path or the name of a method taking no
// arguments and returning a single value.
func DescribeMember(typ reflect.Type, member string) (MemberDescriptor, error) {
	if typ == nil {
		return MemberDescriptor{}, configErrorf("member %q: item type is nil", member)
	}
	member = strings.TrimSpace(member)
	if member == "" {
		return MemberDescriptor{}, configErrorf("member name must not be blank")
	}

	getters := make([]func(reflect.Value) (reflect.Value, bool), 0, strings.Count(member, ".")+1)
	cur := typ
	for _, part := range strings.Split(member, ".") {
		get, next, err := resolveMember(cur, part)
		if err != nil {
			return MemberDescriptor{}, configErrorf("member %q of %s: %v", member, typ, err)
		}
		getters = append(getters, get)
		cur = next
	}

	return MemberDescriptor{
		Name:     member,
		Resolved: true,
		DataType: cur,
		Getter: func(item any) (any, error) {
			v := reflect.ValueOf(item)
			for _, get := range getters {
				var ok bool
				if v, ok = get(v); !ok {
					return nil, nil
				}
			}
			return v.Interface(), nil
		},
	}, nil
}

func resolveMember(typ reflect.Type, name string) (func(reflect.Value) (reflect.Value, bool), reflect.Type, error) {
	base := typ
	for base.Kind() == reflect.Pointer {
		base = base.Elem()
	}

	if base.Kind() == reflect.Struct {
		if f, ok := base.FieldByName(name); ok {
			if !f.IsExported() {
				return nil, nil, configErrorf("field %s is not exported", name)
			}
			index := f.Index
			return func(v reflect.Value) (reflect.Value, bool) {
				v, ok := derefValue(v, base)
				if !ok {
					return reflect.Value{}, false
				}
				fv, err := v.FieldByIndexErr(index)
				if err != nil {
					return reflect.Value{}, false
				}
				return fv, true
			}, f.Type, nil
		}
	}

	m, ok := reflect.PointerTo(base).MethodByName(name)
	if !ok {
		return nil, nil, configErrorf("no exported field or method %s", name)
	}
	// The receiver occupies the first input.
	if m.Type.NumIn() != 1 {
		return nil, nil, configErrorf("method %s takes arguments", name)
	}
	if m.Type.NumOut() != 1 {
		return nil, nil, configErrorf("method %s must return exactly one value", name)
	}
	return func(v reflect.Value) (reflect.Value, bool) {
		v, ok := derefValue(v, base)
		if !ok {
			return reflect.Value{}, false
		}
		if !v.CanAddr() {
			p := reflect.New(base)
			p.Elem().Set(v)
			v = p.Elem()
		}
		return v.Addr().MethodByName(name).Call(nil)[0], true
	}, m.Type.Out(0), nil
}

// derefValue follows pointers and interfaces down to a value of type base.
func derefValue(v reflect.Value, base reflect.Type) (reflect.Value, bool) {
	for v.IsValid() && (v.Kind() == reflect.Pointer || v.Kind() == reflect.Interface) {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if !v.IsValid() || v.Type() != base {
		return reflect.Value{}, false
	}
	return v, true
}

// NewReflectColumn creates a column reading member of typ by reflection. When
// want is neither nil nor the empty interface the member type must be
// assignable to it. Collection members are rejected; use NewReflectCollection.
func NewReflectColumn(typ reflect.Type, member string, want reflect.Type) (ColumnSource, error) {
	d, err := DescribeMember(typ, member)
	if err != nil {
		return nil, err
	}
	if want != nil && want != anyType && !d.DataType.AssignableTo(want) {
		return nil, configErrorf("member %q of %s has type %s, not assignable to %s", member, typ, d.DataType, want)
	}
	if isCollectionType(underlyingType(d.DataType)) {
		return nil, configErrorf("member %q of %s is a collection", member, typ)
	}
	return newColumn(d.Name, d.DataType, d.Getter), nil
}

// NewReflectCollection describes a collection-valued member of typ.
func NewReflectCollection(typ reflect.Type, member string) (MemberDescriptor, error) {
	d, err := DescribeMember(typ, member)
	if err != nil {
		return MemberDescriptor{}, err
	}
	if !isCollectionType(underlyingType(d.DataType)) {
		return MemberDescriptor{}, configErrorf("member %q of %s is not a collection", member, typ)
	}
	return d, nil
}
