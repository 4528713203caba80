// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package defpack

import (
	"context"
	"strings"
	"time"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"

	"github.com/holomush/claimflags/internal/flag"
)

// CodeScriptFailed marks a validator script that errored instead of answering.
const CodeScriptFailed = "SCRIPT_FAILED"

// DefaultScriptTimeout bounds one Lua validator call.
const DefaultScriptTimeout = 100 * time.Millisecond

// luaEntry is the global function a validator script must define.
const luaEntry = "validate"

type luaLibrary struct {
	name string
	fn   lua.LGFunction
}

// sandboxLibraries are the only libraries opened in validator states.
// os, io, debug, and package are never loaded.
var sandboxLibraries = []luaLibrary{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// unsafeBaseFunctions reach the filesystem or compile arbitrary code.
var unsafeBaseFunctions = []string{"dofile", "loadfile", "loadstring", "load", "require"}

// ScriptRunner runs Lua validators in fresh sandboxed states.
// A state is created per call, so a runner is safe for concurrent use.
type ScriptRunner struct {
	timeout time.Duration
}

// NewScriptRunner creates a runner. A non-positive timeout uses DefaultScriptTimeout.
func NewScriptRunner(timeout time.Duration) *ScriptRunner {
	if timeout <= 0 {
		timeout = DefaultScriptTimeout
	}
	return &ScriptRunner{timeout: timeout}
}

func (r *ScriptRunner) newState(ctx context.Context) (*lua.LState, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range sandboxLibraries {
		if err := L.CallByParam(lua.P{
			Fn:      L.NewFunction(lib.fn),
			NRet:    0,
			Protect: true,
		}, lua.LString(lib.name)); err != nil {
			L.Close()
			return nil, oops.In("lua").With("library", lib.name).Wrapf(err, "open library")
		}
	}
	for _, fn := range unsafeBaseFunctions {
		L.SetGlobal(fn, lua.LNil)
	}
	L.SetContext(ctx)
	return L, nil
}

// compile parses source once. Each validation loads the compiled chunk into a
// new state and calls validate(params, args), which returns ok and an
// optional message overriding the declared one.
func (r *ScriptRunner) compile(flagName, source, message string) (flag.Validator, error) {
	if r == nil {
		r = NewScriptRunner(0)
	}
	chunk, err := parse.Parse(strings.NewReader(source), flagName)
	if err != nil {
		return nil, oops.Code(CodeInvalidManifest).With("flag", flagName).Wrapf(err, "parse lua validator")
	}
	proto, err := lua.Compile(chunk, flagName)
	if err != nil {
		return nil, oops.Code(CodeInvalidManifest).With("flag", flagName).Wrapf(err, "compile lua validator")
	}

	return func(params string) error {
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()
		return r.run(ctx, proto, flagName, params, message)
	}, nil
}

func (r *ScriptRunner) run(ctx context.Context, proto *lua.FunctionProto, flagName, params, message string) error {
	L, err := r.newState(ctx)
	if err != nil {
		return oops.Code(CodeScriptFailed).With("message", message).Wrap(err)
	}
	defer L.Close()

	L.Push(L.NewFunctionFromProto(proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return scriptFailed(flagName, message, err)
	}

	entry := L.GetGlobal(luaEntry)
	if entry.Type() != lua.LTFunction {
		return scriptFailed(flagName, message, oops.Errorf("script does not define %s", luaEntry))
	}

	args := L.NewTable()
	for _, a := range strings.Fields(params) {
		args.Append(lua.LString(a))
	}
	if err := L.CallByParam(lua.P{Fn: entry, NRet: 2, Protect: true}, lua.LString(params), args); err != nil {
		return scriptFailed(flagName, message, err)
	}

	ok := lua.LVAsBool(L.Get(-2))
	if custom := L.Get(-1); custom.Type() == lua.LTString && custom.String() != "" {
		message = custom.String()
	}
	L.Pop(2)

	if !ok {
		return flag.ErrInvalidParameters(message)
	}
	return nil
}

func scriptFailed(flagName, message string, err error) error {
	return oops.Code(CodeScriptFailed).
		With("flag", flagName).
		With("message", message).
		Wrapf(err, "lua validator")
}
