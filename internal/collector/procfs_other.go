//go:build !linux

package collector

// isProcFS is always false off Linux; gopsutil covers those platforms
func isProcFS(path string) bool {
	return false
}
