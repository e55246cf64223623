package cli

import (
	"fmt"
	"os"
	"strconv"

	"protoclient/internal/config"
)

func loadBody(data, dataFile string) (string, error) {
	if dataFile == "" {
		return data, nil
	}
	if data != "" {
		return "", fmt.Errorf("use either --data or --data-file")
	}
	path, err := config.Expand(dataFile)
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parseMessageNumber(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid message number: %s", arg)
	}
	return n, nil
}
