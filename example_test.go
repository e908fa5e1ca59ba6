package persist_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/goforj/persist"
	"github.com/goforj/persist/persistfake"
)

type Settings struct {
	Theme    string
	FontSize int
}

func ExampleGet() {
	c := persist.New(persist.NewMemoryStore(context.Background()))

	s, _ := persist.Get[Settings](c, "settings")
	s.Theme = "dark"

	again, _ := persist.Get[Settings](c, "settings")
	fmt.Println(again.Theme, s == again)
	// Output: dark true
}

func ExampleCache_Sync() {
	store := persistfake.New()
	c := persist.New(store)

	s, _ := persist.GetDefault[Settings](c)
	s.FontSize = 12

	result := c.Sync()
	body, _ := store.Record("Settings")
	fmt.Println(len(result.Results), result.Err() == nil)
	fmt.Println(strings.Contains(string(body), "<FontSize>12</FontSize>"))
	// Output:
	// 1 true
	// true
}

func ExampleExitHook() {
	store := persistfake.New()
	hook := persist.NewExitHook()
	c := persist.New(store, persist.WithExitHook(hook))

	s, _ := persist.Get[Settings](c, "layout/main")
	s.Theme = "light"

	hook.Fire()
	_, ok := store.Record("layout/main")
	fmt.Println(ok, c.State())
	// Output: true closed
}
