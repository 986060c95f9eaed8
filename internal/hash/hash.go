/*
Copyright © 2026 the changealong authors.
This file is part of changealong.

changealong is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

changealong is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with changealong.  If not, see <http://www.gnu.org/licenses/>.
*/


// Package hash provides stable keys for arbitrary values. It is used for
// object class handles and for cache keys of prepared geometries.
package hash

import (
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"hash"
	"hash/fnv"

	"github.com/davecgh/go-spew/spew"
)

// Hash returns a hex hash key for the specified object.
func Hash(object interface{}) string {
	if s, ok := object.(fmt.Stringer); ok {
		return s.String()
	}
	h := fnv.New128a()
	write(h, object)
	b := h.Sum(nil)
	return fmt.Sprintf("%x", b[0:h.Size()])
}

// Int64 returns a 63-bit non-negative hash of the specified object.
// Stringers are hashed by their string representation.
func Int64(object interface{}) int64 {
	h := fnv.New64a()
	if s, ok := object.(fmt.Stringer); ok {
		h.Write([]byte(s.String()))
	} else {
		write(h, object)
	}
	return int64(binary.BigEndian.Uint64(h.Sum(nil)) >> 1)
}

func write(h hash.Hash, object interface{}) {
	if err := gob.NewEncoder(h).Encode(object); err == nil {
		return
	}
	// gob fails on some values (e.g., NaN map keys or unexported
	// fields); spew prints every value deterministically.
	h.Reset()
	printer := spew.ConfigState{
		Indent:                  " ",
		SortKeys:                true,
		DisableMethods:          true,
		SpewKeys:                true,
		DisablePointerAddresses: true,
		DisableCapacities:       true,
	}
	printer.Fprintf(h, "%#v", object)
}
