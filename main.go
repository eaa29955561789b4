// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"

	"github.com/pgsqlls/pgsqlls/cmd/pgsqlls"
)

func main() {
	if err := pgsqlls.Execute(); err != nil {
		os.Exit(1)
	}
}
