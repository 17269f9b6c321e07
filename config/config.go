package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"dirty4/models"
)

const (
	configDirPath    = "~/.config/dirty4"
	patternsFileName = "patterns.json"
)

// LoadPatterns loads the site heuristics from patterns.json, falling
// back to the compiled-in defaults when the file is missing or
// unreadable. The pattern lists drift as the third-party sites
// change, so keeping them on disk lets a user fix a broken selector
// without waiting for a release.
func LoadPatterns() models.Patterns {
	patternsLocation, err := verifyConfigFiles()
	if err != nil {
		log.Printf("error verifying config files: %v", err)
		return models.DefaultPatterns()
	}

	file, err := os.Open(patternsLocation)
	if err != nil {
		log.Printf("error loading patterns file: %v", err)
		return models.DefaultPatterns()
	}
	defer file.Close()

	byteValues, err := io.ReadAll(file)
	if err != nil {
		log.Printf("error reading patterns file: %v", err)
		return models.DefaultPatterns()
	}

	var patterns models.Patterns
	if err := json.Unmarshal(byteValues, &patterns); err != nil {
		log.Printf("error unmarshalling patterns: %v", err)
		return models.DefaultPatterns()
	}

	return patterns
}

// SavePatterns writes the heuristics to ~/.config/dirty4/patterns.json.
func SavePatterns(patterns models.Patterns) error {
	configDir, err := verifyConfigDirectory()
	if err != nil {
		return fmt.Errorf("error verifying config directory: %w", err)
	}

	patternsFile := filepath.Join(configDir, patternsFileName)

	jsonData, err := json.MarshalIndent(patterns, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(patternsFile, jsonData, 0644)
}

// ConfigDir returns the verified configuration directory path.
func ConfigDir() (string, error) {
	return verifyConfigDirectory()
}

// check config directory exists or create it
func verifyConfigDirectory() (string, error) {
	configDirectory, expandError := expandPath(configDirPath)
	if expandError != nil {
		return "", fmt.Errorf("cannot verify local configuration directory: %w", expandError)
	}

	_, err := os.Stat(configDirectory)

	if os.IsNotExist(err) {
		if err := os.MkdirAll(configDirectory, 0755); err != nil {
			return "", fmt.Errorf("error creating directory %s: %w", configDirectory, err)
		}
		log.Printf("Directory %s created successfully.\n", configDirectory)
	} else if err != nil {
		return "", fmt.Errorf("error checking directory %s: %w", configDirectory, err)
	}

	return configDirectory, nil
}

// check config files exist or create them
func verifyConfigFiles() (string, error) {
	configDir, err := verifyConfigDirectory()
	if err != nil {
		return "", err
	}

	patternsFile := filepath.Join(configDir, patternsFileName)

	_, err = os.Stat(patternsFile)

	if os.IsNotExist(err) {
		// File does not exist, seed it with the defaults so the user
		// has something to edit.
		log.Printf("Patterns file not found, creating defaults at '%s'\n", patternsFile)

		if saveErr := SavePatterns(models.DefaultPatterns()); saveErr != nil {
			return "", fmt.Errorf("error creating patterns file: %w", saveErr)
		}
		log.Printf("File '%s' created successfully.\n", patternsFile)

	} else if err != nil {
		return "", fmt.Errorf("error checking file existence: %w", err)
	}

	return patternsFile, nil
}

// expandPath resolves a leading ~ against the user's home directory.
func expandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
