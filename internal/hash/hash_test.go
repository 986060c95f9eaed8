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


package hash

import (
	"math"
	"testing"
)

type class struct {
	Name string
	Type int
}

func TestInt64(t *testing.T) {
	a := Int64(class{Name: "parcels", Type: 4})
	b := Int64(class{Name: "parcels", Type: 4})
	c := Int64(class{Name: "parcels", Type: 3})
	if a != b {
		t.Errorf("have %d, want %d", a, b)
	}
	if a == c {
		t.Errorf("different classes hashed to %d", a)
	}
	if a < 0 || c < 0 {
		t.Errorf("negative hash: %d, %d", a, c)
	}
}

func TestHashNaN(t *testing.T) {
	v := []float64{1, math.NaN(), 3}
	if Hash(v) != Hash([]float64{1, math.NaN(), 3}) {
		t.Error("hash of NaN values is not stable")
	}
	if Hash(v) == Hash([]float64{1, 2, 3}) {
		t.Error("hash ignores NaN value")
	}
}
