// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package main

import "github.com/bep/rawpreview/cmd/rawpreview/cmd"

func main() {
	cmd.Execute()
}
