/*
Package dsl builds dialogue templates in Go instead of YAML, JSON or TOML.

Resources are declared in order with a fluent builder; Build checks the
result the same way a template file is checked when it is loaded.

	b := dsl.New("delivery").Expiration(10 * time.Minute)

	b.Add("Date").Date().Prompt("initial", "Which day?")
	b.Add("Time").Time().Prompt("initial", "At what time?")
	b.Add("DateTime").Wrapper("Date", "Time")
	b.Add("Final").Final("DateTime").Prompt("cancelled", "Maybe next time.")

	tmpl, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	loader, _ := memory.NewLoader(tmpl)
	eng, _ := parley.New(parley.WithTemplates(loader), parley.WithDialogue(d))
*/
package dsl
