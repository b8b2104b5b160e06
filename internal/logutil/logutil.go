// Copyright 2024 The Graphd Authors
// This file is part of graphd.
//
// graphd is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// graphd is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with graphd. If not, see <http://www.gnu.org/licenses/>.

// Package logutil constructs the *zap.Logger instances the rest of the
// core takes by explicit injection (no package-level global logger):
// components are handed a named, pre-configured logger at construction
// time, the way internal/store wires up internal/block and internal/gmap.
package logutil

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Mode selects the base encoder/level configuration.
type Mode int

const (
	// Production emits JSON at info level and above.
	Production Mode = iota
	// Development emits human-readable console output at debug level,
	// including stack traces on warn and above.
	Development
)

// New builds a logger for the given mode, named sys (e.g. "store",
// "exec", "gmap") so every log line is traceable to its component, the
// way the teacher's handlers are handed a `log.Named(...)` logger.
func New(mode Mode, sys string) (*zap.Logger, error) {
	var cfg zap.Config
	switch mode {
	case Development:
		cfg = zap.NewDevelopmentConfig()
	default:
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Named(sys), nil
}

// Nop returns a logger that discards everything, for tests that need an
// Env/store dependency satisfied without asserting on log output.
func Nop() *zap.Logger {
	return zap.NewNop()
}

// WithRequest annotates logger with the request-scoped fields every log
// line inside a single query's execution should carry (spec §4.6's
// per-request budget/cursor context), mirroring the teacher's
// per-handler `log.With(...)` convention.
func WithRequest(logger *zap.Logger, requestID string, verb string) *zap.Logger {
	return logger.With(zap.String("request_id", requestID), zap.String("verb", verb))
}
