package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/jessevdk/go-flags"
	"github.com/locallibrary/catalog/pkg/config"
	"github.com/locallibrary/catalog/pkg/database"
	"github.com/locallibrary/catalog/pkg/memstore"
	"github.com/locallibrary/catalog/pkg/migrations"
	"github.com/locallibrary/catalog/pkg/mutation"
	"github.com/locallibrary/catalog/pkg/server"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type author struct {
	first, family, born, died string
}

type book struct {
	title, summary, isbn string
	author               int
	genres               []int
}

type bookCopy struct {
	book            int
	imprint         string
	status, dueBack string
}

var (
	authors = []author{
		{"Patrick", "Rothfuss", "1973-06-06", ""},
		{"Ben", "Bova", "1932-11-08", ""},
		{"Isaac", "Asimov", "1920-01-02", "1992-04-06"},
		{"Bob", "Billings", "", ""},
		{"Jim", "Jones", "1971-12-16", ""},
	}
	genres = []string{"Fantasy", "Science Fiction", "French Poetry"}
	books  = []book{
		{"The Name of the Wind", "Told in Kvothe's own voice.", "9781473211896", 0, []int{0}},
		{"The Wise Man's Fear", "Picking up the tale of Kvothe Kingkiller once again.", "9788401352836", 0, []int{0}},
		{"Apes and Angels", "Humankind headed out to the stars.", "9780765379528", 1, []int{1}},
		{"Death Wave", "Ben Bova's previous novel.", "9780765379504", 1, []int{1}},
		{"Test Book 1", "Summary of test book 1", "ISBN111111", 4, []int{0, 1}},
		{"Test Book 2", "Summary of test book 2", "ISBN222222", 4, nil},
	}
	copies = []bookCopy{
		{0, "London Gollancz, 2014.", "Available", ""},
		{1, "Gollancz, 2011.", "Loaned", "2026-11-01"},
		{2, "Gollancz, 2015.", "", ""},
		{3, "New York Tom Doherty Associates, 2016.", "Available", ""},
		{4, "Imprint XXX2", "Maintenance", ""},
		{5, "Imprint XXX3", "Reserved", ""},
	}
)

func main() {
	log := logger.New()

	var opts struct {
		DryRun bool `short:"n" long:"dry-run" description:"Run against an in-memory store instead of the configured database"`
	}
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	ctx := context.Background()
	var stores mutation.Stores
	if opts.DryRun {
		s := memstore.New()
		stores = mutation.Stores{Authors: s, Genres: s, Books: s, BookInstances: s}
	} else {
		cfg, err := config.New()
		if err != nil {
			log.Err(err).Fatal("config error")
		}
		db, err := database.New(cfg)
		if err != nil {
			log.Err(err).Fatal("database error")
		}
		defer db.Close()
		if _, err := migrations.BringUpToDate(ctx, db); err != nil {
			log.Err(err).Fatal("migrations error")
		}
		stores = server.Stores(db)
	}

	if err := seed(ctx, mutation.NewPipeline(stores)); err != nil {
		log.Err(err).Fatal("seed error")
	}
}

func seed(ctx context.Context, p *mutation.Pipeline) error {
	authorIDs := make([]int, len(authors))
	for i, a := range authors {
		id, err := submit(ctx, p, mutation.KindAuthor, url.Values{
			"first_name":    {a.first},
			"family_name":   {a.family},
			"date_of_birth": {a.born},
			"date_of_death": {a.died},
		})
		if err != nil {
			return err
		}
		authorIDs[i] = id
	}

	genreIDs := make([]int, len(genres))
	for i, name := range genres {
		id, err := submit(ctx, p, mutation.KindGenre, url.Values{"name": {name}})
		if err != nil {
			return err
		}
		genreIDs[i] = id
	}

	bookIDs := make([]int, len(books))
	for i, b := range books {
		raw := url.Values{
			"title":   {b.title},
			"summary": {b.summary},
			"isbn":    {b.isbn},
			"author":  {strconv.Itoa(authorIDs[b.author])},
		}
		for _, g := range b.genres {
			raw.Add("genre", strconv.Itoa(genreIDs[g]))
		}
		id, err := submit(ctx, p, mutation.KindBook, raw)
		if err != nil {
			return err
		}
		bookIDs[i] = id
	}

	for _, c := range copies {
		raw := url.Values{
			"book":    {strconv.Itoa(bookIDs[c.book])},
			"imprint": {c.imprint},
		}
		if c.status != "" {
			raw.Set("status", c.status)
		}
		if c.dueBack != "" {
			raw.Set("due_back", c.dueBack)
		}
		if _, err := submit(ctx, p, mutation.KindBookInstance, raw); err != nil {
			return err
		}
	}
	return nil
}

func submit(ctx context.Context, p *mutation.Pipeline, kind mutation.Kind, raw url.Values) (int, error) {
	res := p.Create(ctx, kind, raw)
	switch res.Status {
	case mutation.StatusCommitted:
		note := ""
		if res.Existing {
			note = " (existing)"
		}
		fmt.Printf("%-12s %s%s\n", kind, res.Reference, note)
		return res.ID, nil
	case mutation.StatusRejected:
		return 0, errors.Errorf("%s rejected: %v", kind, res.Errors)
	}
	return 0, res.Err
}
