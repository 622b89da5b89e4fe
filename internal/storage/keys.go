package storage

import (
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mahmoud-the-dev/Propmatch/internal/utils"
)

// KeyPrefix is the root all property images live under.
const KeyPrefix = "properties"

// ObjectKey builds a collision-resistant key for an uploaded image,
// namespaced by the owning property: properties/<id>/<unixnano>_<rand><ext>.
func ObjectKey(propertyID uuid.UUID, originalFilename string) string {
	ext := strings.ToLower(path.Ext(originalFilename))
	return fmt.Sprintf("%s/%s/%d_%s%s",
		KeyPrefix, propertyID, time.Now().UnixNano(), utils.RandomString(8), ext)
}

// PropertyPrefix is the listing prefix for one property's images.
func PropertyPrefix(propertyID uuid.UUID) string {
	return fmt.Sprintf("%s/%s/", KeyPrefix, propertyID)
}

// KeyTimestamp extracts the upload time encoded in an object key.
// Returns false for keys that do not follow the ObjectKey layout.
func KeyTimestamp(key string) (time.Time, bool) {
	base := path.Base(key)
	idx := strings.IndexByte(base, '_')
	if idx <= 0 {
		return time.Time{}, false
	}
	nanos, err := strconv.ParseInt(base[:idx], 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(0, nanos), true
}
