// Package directory provides UserDirectory implementations. The auth core
// never owns user data; it reads the surrounding backend's user and role
// tables through the narrow directory interface.
package directory
