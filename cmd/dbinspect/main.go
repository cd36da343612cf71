// Package main prints a summary of the favorites stored in the Badger
// database. It opens the database read-only, so stop the server first or
// point it at a copy.
//
// Usage:
//
//	DATA_PATH=~/cinefinder go run ./cmd/dbinspect
package main

import (
	"cmp"
	"encoding/json/v2"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"slices"

	"github.com/dgraph-io/badger/v4"

	"github.com/cinefinder/cinefinder-server/internal/domain"
)

const (
	favoritePrefix    = "fav:"
	searchStatePrefix = "searchstate:"
)

func main() {
	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/cinefinder")
	}
	dbPath := filepath.Join(dataPath, "badger")

	opts := badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	fmt.Println("=== Favorites Inspection ===")
	fmt.Println()

	perUser := map[string]int{}
	perMovie := map[int]int{}
	titles := map[int]string{}
	total, undecodable := 0, 0

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(favoritePrefix), PrefetchValues: true, PrefetchSize: 100})
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var entry domain.FavoriteEntry
				if err := json.Unmarshal(val, &entry); err != nil {
					return err
				}
				total++
				perUser[entry.UserID]++
				perMovie[entry.MovieID]++
				titles[entry.MovieID] = entry.Title
				return nil
			})
			if err != nil {
				undecodable++
				log.Printf("Error reading %s: %v", item.Key(), err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating favorites: %v", err)
	}

	states := 0
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: []byte(searchStatePrefix)})
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			states++
		}
		return nil
	})
	if err != nil {
		log.Fatalf("Error iterating search states: %v", err)
	}

	movieIDs := make([]int, 0, len(perMovie))
	for id := range perMovie {
		movieIDs = append(movieIDs, id)
	}
	slices.SortFunc(movieIDs, func(a, b int) int {
		if c := cmp.Compare(perMovie[b], perMovie[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})

	fmt.Println("Most saved movies:")
	for i, id := range movieIDs {
		if i == 10 {
			fmt.Printf("  ... and %d more\n", len(movieIDs)-10)
			break
		}
		fmt.Printf("  %6d  %-40s %d\n", id, titles[id], perMovie[id])
	}
	fmt.Println()

	fmt.Println("=== Summary ===")
	fmt.Printf("Favorites: %d\n", total)
	fmt.Printf("Users with favorites: %d\n", len(perUser))
	fmt.Printf("Distinct movies: %d\n", len(perMovie))
	fmt.Printf("Live search states: %d\n", states)
	if undecodable > 0 {
		fmt.Printf("Undecodable entries: %d\n", undecodable)
	}
	if len(perUser) > 0 {
		fmt.Printf("Average favorites per user: %.1f\n", float64(total)/float64(len(perUser)))
	}
}
