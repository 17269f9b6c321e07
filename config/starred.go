package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"dirty4/models"
)

const starredFileName = "starred.json"

// Starred is the persisted set of posts the user starred. A starred
// copy outlives the search that produced it.
type Starred struct {
	Posts []models.MediaPost `json:"starred"`
}

// LoadStarred reads the starred set from ~/.config/dirty4/starred.json.
// A missing or unreadable file yields an empty set.
func LoadStarred() Starred {
	configDir, err := verifyConfigDirectory()
	if err != nil {
		log.Printf("error verifying config directory: %v", err)
		return Starred{}
	}

	file, err := os.Open(filepath.Join(configDir, starredFileName))
	if err != nil {
		if !os.IsNotExist(err) {
			log.Printf("error loading starred file: %v", err)
		}
		return Starred{}
	}
	defer file.Close()

	byteValues, err := io.ReadAll(file)
	if err != nil {
		log.Printf("error reading starred file: %v", err)
		return Starred{}
	}

	var starred Starred
	if err := json.Unmarshal(byteValues, &starred); err != nil {
		log.Printf("error unmarshalling starred: %v", err)
	}

	return starred
}

// SaveStarred writes the starred set to disk.
func SaveStarred(starred Starred) error {
	configDir, err := verifyConfigDirectory()
	if err != nil {
		return fmt.Errorf("error verifying config directory: %w", err)
	}

	jsonData, err := json.MarshalIndent(starred, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, starredFileName), jsonData, 0644)
}

// Contains reports whether a post is starred. Identity is
// (source, id) because IDs are only unique within a source.
func (s *Starred) Contains(post models.MediaPost) bool {
	return s.indexOf(post) >= 0
}

// Toggle stars an unstarred post and unstars a starred one,
// returning true when the post ends up starred.
func (s *Starred) Toggle(post models.MediaPost) bool {
	if i := s.indexOf(post); i >= 0 {
		s.Posts = append(s.Posts[:i], s.Posts[i+1:]...)
		return false
	}
	s.Posts = append(s.Posts, post)
	return true
}

// Clear empties the set.
func (s *Starred) Clear() {
	s.Posts = nil
}

func (s *Starred) indexOf(post models.MediaPost) int {
	for i, p := range s.Posts {
		if p.Source == post.Source && p.ID == post.ID {
			return i
		}
	}
	return -1
}
