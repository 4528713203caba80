// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/holomush/claimflags/internal/flag"
)

func newTable(w io.Writer, header ...any) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row(header))
	return t
}

func flagRow(f flag.Flag) table.Row {
	return table.Row{f.Scope, f.Name, stateText(f.Active), f.Params}
}

func stateText(active bool) string {
	if active {
		return text.FgGreen.Sprint("on")
	}
	return text.FgYellow.Sprint("off")
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
