package jobenv

import (
	"fmt"
	"os"
)

// Variant selects the construction strategy for the cluster. The set is
// closed: the two real strategies plus reserved diagnostic sub-variants that
// start exactly like VariantLegacy. Dispatch is by explicit switch, never
// open extension.
//
// The variant is selected once, before acquisition, and is immutable for the
// harness's lifetime.
type Variant int

const (
	// VariantLegacy builds a single shared-process cluster. Its internal
	// wiring depends on whether the administrative client is enabled:
	// enabling the client forces separate per-component dispatch, because
	// the shared dispatch loop cannot serve an external client. This
	// coupling of an orthogonal feature flag to internal topology is a
	// deliberate, preserved tradeoff of the legacy construction.
	VariantLegacy Variant = iota

	// VariantNew builds the cluster through an explicit configuration with
	// an ephemeral coordinator port; the bound port is read back after
	// startup and published in the connection descriptor.
	VariantNew

	// VariantLegacyProbe is a reserved diagnostic sub-variant. For startup
	// purposes it behaves identically to VariantLegacy.
	VariantLegacyProbe

	// VariantLegacyTrace is a reserved diagnostic sub-variant. For startup
	// purposes it behaves identically to VariantLegacy.
	VariantLegacyTrace
)

// CodebaseEnvVar is the environment variable VariantFromEnv reads.
const CodebaseEnvVar = "JOBENV_CODEBASE"

// newCodebase is the CodebaseEnvVar value selecting VariantNew.
const newCodebase = "new"

// IsValid reports whether v is a recognized Variant value.
func (v Variant) IsValid() bool {
	switch v {
	case VariantLegacy, VariantNew, VariantLegacyProbe, VariantLegacyTrace:
		return true
	default:
		return false
	}
}

// String returns the name of the variant.
func (v Variant) String() string {
	switch v {
	case VariantLegacy:
		return "VariantLegacy"
	case VariantNew:
		return "VariantNew"
	case VariantLegacyProbe:
		return "VariantLegacyProbe"
	case VariantLegacyTrace:
		return "VariantLegacyTrace"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

// startsLegacy reports whether v starts through the legacy construction
// path. The diagnostic sub-variants differ from VariantLegacy only in
// downstream instrumentation, never in startup.
func (v Variant) startsLegacy() bool {
	switch v {
	case VariantLegacy, VariantLegacyProbe, VariantLegacyTrace:
		return true
	default:
		return false
	}
}

// VariantFromEnv resolves the variant from the JOBENV_CODEBASE environment
// variable: "new" selects VariantNew, anything else (including unset)
// selects VariantLegacy. A Harness built without WithVariant uses this
// resolution.
func VariantFromEnv() Variant {
	if os.Getenv(CodebaseEnvVar) == newCodebase {
		return VariantNew
	}
	return VariantLegacy
}
