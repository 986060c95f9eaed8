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


// Command changealong reshapes and cuts features along other features,
// locally or through a change-along server.
package main

import (
	"os"

	"github.com/prosuite/changealong/cautil"
)

func main() {
	if err := cautil.Root.Execute(); err != nil {
		os.Exit(1)
	}
}
