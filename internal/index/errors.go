package index

import (
	"fmt"

	"github.com/Varshithvhegde/summarizely-ai-backend/internal/apperrors"
)

// vectorDimError reports a PutDoc whose vector length doesn't match the
// configured index dimension. Per SPEC_FULL.md §9, this is a hard reject —
// never silently coerced.
func vectorDimError(want, got int) error {
	return apperrors.BadInput("put_doc_vector_dim", fmt.Errorf("vector dimension %d does not match configured dimension %d", got, want))
}
