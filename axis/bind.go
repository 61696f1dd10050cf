// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package axis

import (
	"reflect"
	"strings"

	"github.com/db47h/axisim"
)

// Bind returns the Signals of the stream interface named port in dev, which
// must be a pointer to a struct.
//
// Stream signals are identified by field tags of the form
// `axis:"port,signal"` where signal is one of tready, tvalid, tlast, tkeep,
// tdata or tuser. tready, tvalid and tlast must be bool fields; tkeep, tdata
// and tuser must be of type K, D and U respectively. tuser may appear several
// times: sideband channels are numbered in field order.
//
//	type dut struct {
//		SAxisTValid bool   `axis:"s_axis,tvalid"`
//		SAxisTReady bool   `axis:"s_axis,tready"`
//		SAxisTData  uint32 `axis:"s_axis,tdata"`
//	}
//
// Signals without a tagged field are absent.
//
func Bind[D, K, U Word](dev interface{}, port string) (Signals[D, K, U], error) {
	var sig Signals[D, K, U]
	v := reflect.ValueOf(dev)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return sig, axisim.Errorf(axisim.KindConfig, "unsupported type %T: need a pointer to a struct", dev)
	}
	e := v.Elem()
	typ := e.Type()
	found := false

	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag, ok := f.Tag.Lookup("axis")
		if !ok {
			continue
		}
		tv := strings.Split(tag, ",")
		if len(tv) != 2 {
			return sig, axisim.Errorf(axisim.KindConfig, "malformed tag %q for field %q in %q", tag, f.Name, typ.Name())
		}
		if tv[0] != port {
			continue
		}
		found = true
		fv := e.Field(i)
		if !fv.CanAddr() || !fv.CanInterface() {
			return sig, axisim.Errorf(axisim.KindConfig, "field %q in %q is not exported", f.Name, typ.Name())
		}
		p := fv.Addr().Interface()
		var ok2 bool
		switch strings.ToLower(tv[1]) {
		case "tready":
			sig.TReady, ok2 = p.(*bool)
		case "tvalid":
			sig.TValid, ok2 = p.(*bool)
		case "tlast":
			sig.TLast, ok2 = p.(*bool)
		case "tkeep":
			sig.TKeep, ok2 = p.(*K)
		case "tdata":
			sig.TData, ok2 = p.(*D)
		case "tuser":
			var u *U
			if u, ok2 = p.(*U); ok2 {
				sig.TUser = append(sig.TUser, u)
			}
		default:
			return sig, axisim.Errorf(axisim.KindConfig, "unsupported signal %q for field %q in %q", tv[1], f.Name, typ.Name())
		}
		if !ok2 {
			return sig, axisim.Errorf(axisim.KindConfig, "unsupported type %q for field %q (%s) in %q", f.Type, f.Name, tv[1], typ.Name())
		}
	}
	if !found {
		return sig, axisim.Errorf(axisim.KindConfig, "no signals for port %q in %q", port, typ.Name())
	}
	return sig, sig.check()
}
