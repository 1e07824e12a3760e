// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/omniauto/omniauto/cmd/omniauto"

func main() {
	cmd.Execute()
}
