/*
Copyright © 2024 the AtmRTM authors.
This file is part of AtmRTM.

AtmRTM is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

AtmRTM is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with AtmRTM.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package hash computes fingerprints of model configurations, which
// are recorded in output files so runs with identical settings can
// be identified.
package hash

import (
	"encoding/gob"
	"fmt"
	"hash/fnv"

	"github.com/davecgh/go-spew/spew"
)

var printer = spew.ConfigState{
	Indent:                  " ",
	SortKeys:                true,
	DisableMethods:          true,
	SpewKeys:                true,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Fingerprint returns a hexadecimal FNV-128a hash of the given objects.
// Objects that gob cannot encode, such as structs without exported
// fields, are hashed from their spew representation instead.
func Fingerprint(objects ...interface{}) string {
	h := fnv.New128a()
	e := gob.NewEncoder(h)
	for _, o := range objects {
		if err := e.Encode(o); err != nil {
			h.Reset()
			printer.Fprintf(h, "%#v", objects)
			break
		}
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
