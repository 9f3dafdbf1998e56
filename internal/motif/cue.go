package motif

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// motifSchema constrains motif source files written in CUE. Unifying the
// user's file against it turns shape mistakes into positioned CUE errors
// before decoding.
const motifSchema = `
directed: bool | *false
nodes: [...{
	id: string
	attrs?: {[string]: string | int | float | bool}
}]
edges: [...{
	from: string
	to:   string
	attrs?: {[string]: string | int | float | bool}
}]
`

// ParseCUE compiles a CUE motif source into a Motif.
// Uses the CUE SDK's Go API directly (not a CLI subprocess). The filename
// is only used for error positions.
func ParseCUE(filename string, data []byte) (*Motif, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(motifSchema)
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("internal motif schema: %w", err)
	}

	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, &MalformedMotifError{Message: cueerrors.Details(err, nil)}
	}

	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, &MalformedMotifError{Message: cueerrors.Details(err, nil)}
	}

	var d Doc
	if err := unified.Decode(&d); err != nil {
		return nil, &MalformedMotifError{Message: fmt.Sprintf("decode: %v", err)}
	}
	return FromDoc(d)
}
