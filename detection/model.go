package detection

import (
	"database/sql"

	"github.com/raviraj-dave96/Compoundflood-road-damage/util"
)

// Context is the context for a detection request
type Context struct {
	DB           *sql.DB
	BaseTidesURL string
	sessionID    string
}

// AppName returns the application name
func (c *Context) AppName() string {
	return util.AppName
}

// SessionID returns a Session ID, creating one if needed
func (c *Context) SessionID() string {
	if c.sessionID == "" {
		c.sessionID, _ = util.PsuUUID()
	}
	return c.sessionID
}

// LogRootDir returns an empty string
func (c *Context) LogRootDir() string {
	return ""
}
