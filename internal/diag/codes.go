package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Type resolution
	ResInfo            Code = 1000
	ResUnsupportedType Code = 1001
	ResMalformedInput  Code = 1002
	ResRecursiveType   Code = 1003

	// Storage layout
	LayInfo            Code = 2000
	LayStorageExcluded Code = 2001

	// Contract spec
	SpcInfo              Code = 3000
	SpcSelectorCollision Code = 3001
	SpcSelectorWidth     Code = 3002
	SpcMalformedInput    Code = 3003

	// Descriptor assembly and verification
	MetInfo           Code = 4000
	MetBadVersion     Code = 4001
	MetVerifyFailed   Code = 4002
	MetHashMismatch   Code = 4003
	MetUnknownMessage Code = 4004

	// IO
	IOInfo       Code = 5000
	IOReadError  Code = 5001
	IOWriteError Code = 5002
	IOLoadError  Code = 5003

	// Project manifest
	PrjInfo             Code = 6000
	PrjManifestNotFound Code = 6001
	PrjManifestInvalid  Code = 6002
	PrjContractNotFound Code = 6003

	// Observability
	ObsInfo    Code = 7000
	ObsTimings Code = 7001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:          "Unknown error",
		ResInfo:              "Type resolution information",
		ResUnsupportedType:   "Unsupported type",
		ResMalformedInput:    "Malformed program model",
		ResRecursiveType:     "Recursive type",
		LayInfo:              "Storage layout information",
		LayStorageExcluded:   "Storage variable excluded from layout",
		SpcInfo:              "Contract spec information",
		SpcSelectorCollision: "Selector collision",
		SpcSelectorWidth:     "Selector has wrong width",
		SpcMalformedInput:    "Malformed function or event",
		MetInfo:              "Descriptor information",
		MetBadVersion:        "Invalid contract version",
		MetVerifyFailed:      "Descriptor is inconsistent",
		MetHashMismatch:      "Code hash does not match embedded code",
		MetUnknownMessage:    "Unknown message",
		IOInfo:               "I/O information",
		IOReadError:          "Cannot read file",
		IOWriteError:         "Cannot write file",
		IOLoadError:          "Cannot load descriptor",
		PrjInfo:              "Project information",
		PrjManifestNotFound:  "Project manifest not found",
		PrjManifestInvalid:   "Invalid project manifest",
		PrjContractNotFound:  "Contract not found",
		ObsInfo:              "Observability information",
		ObsTimings:           "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("LAY%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SPC%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("MET%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 7000 && ic < 8000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
