package serve

import "os"

func writeRaw(path, data string) error {
	return os.WriteFile(path, []byte(data), 0o644)
}
