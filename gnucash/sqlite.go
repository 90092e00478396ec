package gnucash

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

func rational(num, denom int64) decimal.Decimal {
	if denom == 0 {
		return decimal.Zero
	}
	return decimal.New(num, 0).Div(decimal.New(denom, 0))
}

func readSQLite(path string, logger zerolog.Logger) (*Book, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	commodities := make(map[string]commodity)
	rows, err := db.Query(`SELECT guid, namespace, mnemonic FROM commodities`)
	if err != nil {
		return nil, fmt.Errorf("commodities: %w", err)
	}
	for rows.Next() {
		var guid string
		var c commodity
		if err := rows.Scan(&guid, &c.Namespace, &c.Mnemonic); err != nil {
			rows.Close()
			return nil, fmt.Errorf("commodities: %w", err)
		}
		commodities[guid] = c
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("commodities: %w", err)
	}

	b := newBook(logger)
	rows, err = db.Query(`SELECT guid, name, account_type, COALESCE(parent_guid, ''), COALESCE(commodity_guid, '') FROM accounts`)
	if err != nil {
		return nil, fmt.Errorf("accounts: %w", err)
	}
	for rows.Next() {
		var a account
		var cguid string
		if err := rows.Scan(&a.GUID, &a.Name, &a.Type, &a.Parent, &cguid); err != nil {
			rows.Close()
			return nil, fmt.Errorf("accounts: %w", err)
		}
		a.Commodity = commodities[cguid]
		b.addAccount(&a)
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("accounts: %w", err)
	}

	rows, err = db.Query(`SELECT account_guid, quantity_num, quantity_denom FROM splits`)
	if err != nil {
		return nil, fmt.Errorf("splits: %w", err)
	}
	for rows.Next() {
		var guid string
		var num, denom int64
		if err := rows.Scan(&guid, &num, &denom); err != nil {
			rows.Close()
			return nil, fmt.Errorf("splits: %w", err)
		}
		b.addSplit(guid, rational(num, denom))
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, fmt.Errorf("splits: %w", err)
	}

	rows, err = db.Query(`SELECT commodity_guid, currency_guid, date, value_num, value_denom FROM prices`)
	if err != nil {
		return nil, fmt.Errorf("prices: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cguid, curguid, date string
		var num, denom int64
		if err := rows.Scan(&cguid, &curguid, &date, &num, &denom); err != nil {
			return nil, fmt.Errorf("prices: %w", err)
		}
		t, err := parseTime(date)
		if err != nil {
			return nil, fmt.Errorf("prices: %w", err)
		}
		b.prices = append(b.prices, price{
			Commodity: commodities[cguid],
			Currency:  commodities[curguid],
			Date:      t,
			Value:     rational(num, denom),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("prices: %w", err)
	}
	return b, nil
}
