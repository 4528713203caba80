// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package defpack

import (
	"math"
	"strconv"
	"strings"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
	"github.com/samber/oops"

	"github.com/holomush/claimflags/internal/flag"
)

// buildValidator compiles a validator declaration. A nil spec, or kind none,
// accepts every parameter string.
func buildValidator(flagName string, spec *ValidatorSpec, scripts *ScriptRunner) (flag.Validator, error) {
	if spec == nil {
		return nil, nil
	}
	message := spec.Message
	if message == "" {
		message = "Invalid parameters for " + flagName + "."
	}

	switch spec.Kind {
	case ValidatorNone:
		return nil, nil
	case ValidatorRequired:
		return func(params string) error {
			if strings.TrimSpace(params) == "" {
				return flag.ErrInvalidParameters(message)
			}
			return nil
		}, nil
	case ValidatorNumber:
		return func(params string) error {
			n, err := strconv.ParseFloat(strings.TrimSpace(params), 64)
			if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
				return flag.ErrInvalidParameters(message)
			}
			return nil
		}, nil
	case ValidatorExpr:
		return compileExpr(flagName, spec.Expr, message)
	case ValidatorLua:
		return scripts.compile(flagName, spec.Lua, message)
	default:
		return nil, oops.Code(CodeInvalidManifest).With("flag", flagName).Errorf("unknown validator kind %q", spec.Kind)
	}
}

// exprEnv returns the variables an expression validator sees.
func exprEnv(params string) map[string]any {
	return map[string]any{
		"params": params,
		"args":   strings.Fields(params),
	}
}

func compileExpr(flagName, source, message string) (flag.Validator, error) {
	program, err := exprlang.Compile(source, exprlang.Env(exprEnv("")), exprlang.AsBool())
	if err != nil {
		return nil, oops.Code(CodeInvalidManifest).
			With("flag", flagName).
			With("expr", source).
			Wrapf(err, "compile expr validator")
	}
	return func(params string) error {
		return runExpr(program, params, message)
	}, nil
}

func runExpr(program *exprvm.Program, params, message string) error {
	out, err := exprlang.Run(program, exprEnv(params))
	if err != nil {
		return oops.Code(CodeScriptFailed).With("message", message).Wrapf(err, "expr validator")
	}
	if ok, _ := out.(bool); !ok {
		return flag.ErrInvalidParameters(message)
	}
	return nil
}
