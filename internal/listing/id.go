package listing

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NewJobID builds a timestamp + random identifier such as
// "job-1718000000000-3f2a9c1d".
func NewJobID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("job-%d-%s", now.UnixMilli(), suffix)
}
