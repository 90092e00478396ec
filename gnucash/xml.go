package gnucash

import (
	"compress/gzip"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// XML elements are matched on their local names, namespaces are ignored.

type xmlCommodity struct {
	Space string `xml:"space"`
	ID    string `xml:"id"`
}

func (c xmlCommodity) commodity() commodity { return commodity{Namespace: c.Space, Mnemonic: c.ID} }

type xmlAccount struct {
	Name      string       `xml:"name"`
	ID        string       `xml:"id"`
	Type      string       `xml:"type"`
	Commodity xmlCommodity `xml:"commodity"`
	Parent    string       `xml:"parent"`
}

type xmlSplit struct {
	Quantity string `xml:"quantity"`
	Account  string `xml:"account"`
}

type xmlTransaction struct {
	Splits []xmlSplit `xml:"splits>split"`
}

type xmlPrice struct {
	Commodity xmlCommodity `xml:"commodity"`
	Currency  xmlCommodity `xml:"currency"`
	Time      string       `xml:"time>date"`
	Value     string       `xml:"value"`
}

type xmlBook struct {
	Accounts     []xmlAccount     `xml:"account"`
	Transactions []xmlTransaction `xml:"transaction"`
	Prices       []xmlPrice       `xml:"pricedb>price"`
}

type xmlFile struct {
	XMLName xml.Name `xml:"gnc-v2"`
	Book    xmlBook  `xml:"book"`
}

func readCompressedXML(r io.Reader, logger zerolog.Logger) (*Book, error) {
	z, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer z.Close()
	return readXML(z, logger)
}

func readXML(r io.Reader, logger zerolog.Logger) (*Book, error) {
	var f xmlFile
	if err := xml.NewDecoder(r).Decode(&f); err != nil {
		return nil, err
	}
	b := newBook(logger)
	for _, a := range f.Book.Accounts {
		b.addAccount(&account{
			GUID:      a.ID,
			Name:      a.Name,
			Type:      a.Type,
			Parent:    a.Parent,
			Commodity: a.Commodity.commodity(),
		})
	}
	for _, t := range f.Book.Transactions {
		for _, s := range t.Splits {
			q, err := parseRational(s.Quantity)
			if err != nil {
				return nil, fmt.Errorf("split in account %s: %w", s.Account, err)
			}
			b.addSplit(s.Account, q)
		}
	}
	for _, p := range f.Book.Prices {
		v, err := parseRational(p.Value)
		if err != nil {
			return nil, fmt.Errorf("price of %s: %w", p.Commodity.ID, err)
		}
		date, err := parseTime(p.Time)
		if err != nil {
			return nil, fmt.Errorf("price of %s: %w", p.Commodity.ID, err)
		}
		b.prices = append(b.prices, price{
			Commodity: p.Commodity.commodity(),
			Currency:  p.Currency.commodity(),
			Date:      date,
			Value:     v,
		})
	}
	return b, nil
}
