package session

// Context is passed to every component instead of letting each one read
// ambient storage on its own.
type Context struct {
	store Store
}

// NewContext wraps store
func NewContext(store Store) *Context {
	return &Context{store: store}
}

// Store returns the underlying persisted key-value store
func (c *Context) Store() Store {
	return c.store
}

// Token returns the session credential or "" when logged out
func (c *Context) Token() string {
	token, ok, err := c.store.Get(KeyToken)
	if err != nil || !ok {
		return ""
	}
	return token
}

// SetToken stores the session credential
func (c *Context) SetToken(token string) error {
	return c.store.Set(KeyToken, token)
}

// ClearToken forgets the session credential
func (c *Context) ClearToken() error {
	return c.store.Delete(KeyToken)
}
