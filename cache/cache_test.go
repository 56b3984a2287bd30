package cache

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/BR903/brainjam/config"
)

func TestLoadOnce(t *testing.T) {
	is := is.New(t)
	CreateGlobalObjectCache()
	cfg := config.DefaultConfig()
	calls := 0
	loader := func(cfg *config.Config, key string) (interface{}, error) {
		calls++
		return "game " + key, nil
	}
	obj, err := Load(cfg, "3", loader)
	is.NoErr(err)
	is.Equal(obj.(string), "game 3")
	obj, err = Load(cfg, "3", loader)
	is.NoErr(err)
	is.Equal(obj.(string), "game 3")
	is.Equal(calls, 1)

	_, err = Load(cfg, "4", loader)
	is.NoErr(err)
	var keys []string
	Each(func(name string, obj interface{}) {
		keys = append(keys, name)
	})
	is.Equal(keys, []string{"3", "4"})

	Evict("3")
	_, err = Load(cfg, "3", loader)
	is.NoErr(err)
	is.Equal(calls, 3)
}

func TestLoadError(t *testing.T) {
	is := is.New(t)
	CreateGlobalObjectCache()
	boom := errors.New("boom")
	_, err := Load(config.DefaultConfig(), "x", func(*config.Config, string) (interface{}, error) {
		return nil, boom
	})
	is.Equal(err, boom)
	n := 0
	Each(func(string, interface{}) { n++ })
	is.Equal(n, 0)
}
