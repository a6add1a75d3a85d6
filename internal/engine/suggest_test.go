package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevenshtein(t *testing.T) {
	assert.Equal(t, 0, levenshtein("abc", "abc"))
	assert.Equal(t, 3, levenshtein("abc", ""))
	assert.Equal(t, 3, levenshtein("", "abc"))
	assert.Equal(t, 1, levenshtein("cat", "car"))
	assert.Equal(t, 1, levenshtein("cats", "cat"))
	assert.Equal(t, 3, levenshtein("kitten", "sitting"))
	assert.Equal(t, levenshtein("abc", "def"), levenshtein("def", "abc"))
	assert.Equal(t, 1, levenshtein("café", "cafe"))
}

func TestSuggest(t *testing.T) {
	services := []string{"Compute", "Storage", "SQL", "Key Vault", "Kubernetes"}

	assert.Equal(t, []string{"Storage"}, Suggest("Storge", services))
	assert.Equal(t, "SQL", Suggest("sql", services)[0])
	assert.Equal(t, "Key Vault", Suggest("KeyVault", services)[0])
	assert.Empty(t, Suggest("Networking and more", services))
	assert.Empty(t, Suggest("Compute", services), "exact match is not a suggestion")
}

func TestSuggest_LimitsToThree(t *testing.T) {
	got := Suggest("aaa", []string{"aab", "aac", "aad", "aae"})
	assert.Equal(t, []string{"aab", "aac", "aad"}, got)
}
