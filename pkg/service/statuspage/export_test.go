package statuspage

// SetBaseURL overrides the API endpoint for tests
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}
