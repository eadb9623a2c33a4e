package gallery

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/abworrall/hdr-gallery/pkg/decode"
)

// LoadFilesAndDirs expands the command line into slide paths and config.
// Directories are walked recursively, decodable images become slides in
// argument order (sorted within a directory), and a .yaml file replaces
// the base config; images named by the config come before the ones found
// on the command line.
func LoadFilesAndDirs(base Config, args ...string) (Config, error) {
	cfg := base
	found := []string{}

	var visit func(arg string) error
	visit = func(arg string) error {
		item, err := os.Stat(arg)

		switch {
		case err != nil:
			return fmt.Errorf("load %s: %w", arg, err)

		case item.IsDir():
			contents, err := os.ReadDir(arg)
			if err != nil {
				return fmt.Errorf("readdir %s: %w", arg, err)
			}
			for _, content := range contents {
				if err := visit(filepath.Join(arg, content.Name())); err != nil {
					return err
				}
			}

		case strings.ToLower(filepath.Ext(arg)) == ".yaml":
			c, err := LoadConfig(arg)
			if err != nil {
				return err
			}
			cfg = c

		case decode.Supported(arg):
			found = append(found, arg)
		}

		return nil
	}

	for _, arg := range args {
		if err := visit(arg); err != nil {
			return cfg, err
		}
	}

	cfg.Images = append(append([]string{}, cfg.Images...), found...)
	return cfg, nil
}
