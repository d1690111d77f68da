//go:build tools

package chatwire

import (
	_ "go.uber.org/mock/mockgen"
)
