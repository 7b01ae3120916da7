// Package autoload registers every built-in channel factory.
// Import it for side effects only.
package autoload

import (
	_ "mentor/pkg/channels/telegram"
	_ "mentor/pkg/channels/web"
)
