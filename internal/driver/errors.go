package driver

import (
	"errors"
	"io/fs"

	"contractmeta/internal/diag"
	"contractmeta/internal/metadata"
	"contractmeta/internal/resolve"
	"contractmeta/internal/spec"
)

// ContractNotFoundError is returned for a job naming a contract the model
// does not declare.
type ContractNotFoundError struct {
	Contract   string
	Model      string
	Candidates []string
}

func (e *ContractNotFoundError) Error() string {
	return "contract " + e.Contract + " not found in " + e.Model
}

// ModelError is a program model that does not decode.
type ModelError struct {
	Path string
	Err  error
}

func (e *ModelError) Error() string { return "program model " + e.Path + ": " + e.Err.Error() }

func (e *ModelError) Unwrap() error { return e.Err }

// Classify maps a generation error to its diagnostic code and subject.
func Classify(err error) (diag.Code, diag.Subject) {
	var (
		resErr  *resolve.Error
		specErr *spec.Error
		metaErr *metadata.Error
		nfErr   *ContractNotFoundError
		modErr  *ModelError
		pathErr *fs.PathError
	)
	switch {
	case err == nil:
		return diag.UnknownCode, ""
	case errors.As(err, &nfErr):
		return diag.PrjContractNotFound, diag.Subject(nfErr.Contract)
	case errors.As(err, &modErr):
		return diag.ResMalformedInput, diag.Subject(modErr.Path)
	case errors.As(err, &resErr):
		switch resErr.Kind {
		case resolve.ErrUnsupportedType:
			return diag.ResUnsupportedType, diag.Subject(resErr.Type)
		case resolve.ErrRecursiveType:
			return diag.ResRecursiveType, diag.Subject(resErr.Type)
		default:
			return diag.ResMalformedInput, diag.Subject(resErr.Type)
		}
	case errors.As(err, &specErr):
		if specErr.Kind == spec.ErrSelectorWidth {
			return diag.SpcSelectorWidth, diag.Subject(specErr.Subject)
		}
		return diag.SpcMalformedInput, diag.Subject(specErr.Subject)
	case errors.As(err, &metaErr):
		switch metaErr.Kind {
		case metadata.ErrBadVersion:
			return diag.MetBadVersion, diag.Subject(metaErr.Subject)
		case metadata.ErrInconsistent:
			return diag.MetVerifyFailed, diag.Subject(metaErr.Subject)
		default:
			return diag.ResMalformedInput, diag.Subject(metaErr.Subject)
		}
	case errors.As(err, &pathErr):
		return diag.IOReadError, diag.Subject(pathErr.Path)
	}
	return diag.UnknownCode, ""
}

func reportError(bag *diag.Bag, contract string, err error) {
	if bag == nil || err == nil {
		return
	}
	code, subject := Classify(err)
	d := diag.NewError(code, subject, err.Error())
	d.Contract = contract
	var nfErr *ContractNotFoundError
	if errors.As(err, &nfErr) {
		for _, c := range nfErr.Candidates {
			d = d.WithNote(diag.Subject(c), "did you mean "+c+"?")
		}
	}
	bag.Add(d)
}
