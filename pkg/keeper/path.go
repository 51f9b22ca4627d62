package keeper

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mikekulinski/keeperclient/pkg/coordination"
)

// NormalizePath trims a trailing slash and enforces the leading slash that
// chroot concatenation depends on. With strict set, a missing leading slash
// is an error; otherwise it is fixed up with a warning for paths written
// down before the rule was enforced.
func NormalizePath(path string, strict bool, log *zap.Logger) (string, error) {
	if path != "" && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		if strict {
			return "", &coordination.KeeperError{
				Code:    coordination.BadArguments,
				Message: fmt.Sprintf("coordination path must start with '/', got %q", path),
			}
		}
		if log != nil {
			log.Warn("coordination path does not start with '/'; this will not be supported in future releases",
				zap.String("path", path))
		}
		path = "/" + path
	}
	return path, nil
}
