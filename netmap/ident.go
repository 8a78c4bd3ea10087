package netmap

import "strings"

// framePrefix is the framework prefix recognized (and stripped) from an
// endpoint identifier, e.g. "netmap:eth0".
const framePrefix = "netmap:"

// pipePrefix marks a named intra-host pipe base name, e.g. "pipe{tok}".
const pipePrefix = "pipe{"

// nameFieldSize mirrors the framework's fixed nr_name field, typically
// 15 bytes plus a trailing NUL.
const nameFieldSize = 16

// hostSuffix marks host-stack attachment rather than hardware rings.
const hostSuffix = '^'

// parsedIdent is the result of parsing an endpoint identifier string
// against this package's identifier grammar:
//
//	id        := [prefix ":"] base [host-suffix]
//	prefix    := "netmap"
//	base      := os-if-name | vale-port | pipe-token
//	vale-port := /[A-Za-z0-9]+:[A-Za-z0-9]+/
//	pipe-token:= "pipe{" /[^}]+/ "}"
//	host-suffix := "^"
type parsedIdent struct {
	// raw is the identifier as it should be passed to the framework's
	// open primitive. The prefix is added when the identifier has
	// neither ':' nor a pipe token; otherwise raw is left as given.
	raw string

	// base is the name to place in the request's name field, with the
	// host suffix removed but the pipe/vale syntax intact.
	base string

	// wantsHostRings is true when the identifier carried a trailing '^'.
	wantsHostRings bool

	// isPipe is true when base has pipe{...} shape.
	isPipe bool
}

// parseIdent splits ident into its prefix, base name, host suffix and
// pipe-ness, normalizing raw so it can be handed to the framework's
// open primitive unchanged regardless of whether the caller supplied
// the "netmap:" prefix explicitly.
func parseIdent(ident string) (parsedIdent, error) {
	raw := ident
	base := ident

	switch {
	case strings.HasPrefix(base, framePrefix):
		base = base[len(framePrefix):]
	case !strings.Contains(base, ":") && !strings.Contains(base, pipePrefix):
		raw = framePrefix + base
	default:
		// Already framework-qualified in some other way (e.g. a
		// vale port "vale0:0" with no explicit prefix); leave raw
		// as given, base unchanged.
	}

	wantsHostRings := false
	if len(base) > 0 && base[len(base)-1] == hostSuffix {
		wantsHostRings = true
		base = base[:len(base)-1]
	}

	isPipe := strings.HasPrefix(base, pipePrefix) && strings.HasSuffix(base, "}")

	if len(base)+1 > nameFieldSize {
		return parsedIdent{}, newError(KindBindFail, ident, nil)
	}

	return parsedIdent{
		raw:            raw,
		base:           base,
		wantsHostRings: wantsHostRings,
		isPipe:         isPipe,
	}, nil
}
