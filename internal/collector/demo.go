package collector

import "B3Sentinel/internal/model"

// DemoEquities is a small equities table in fundamentus format for offline runs.
func DemoEquities() RawTable {
	cols := []string{"Papel", "Cotação", "P/L", "P/VP", "Div.Yield", "Mrg. Líq.", "ROIC", "ROE", "Liq.2meses", "Patrim. Líq", "Dív.Brut/ Patrim.", "Cresc. Rec.5a"}
	rows := [][]string{
		{"PETR4", "36,50", "4,10", "1,05", "14,20%", "18,50%", "21,00%", "28,40%", "1.850.000.000,00", "380.000.000.000,00", "0,75", "12,30%"},
		{"BBAS3", "27,80", "4,60", "0,82", "9,80%", "21,00%", "0,00%", "21,10%", "450.000.000,00", "170.000.000.000,00", "3,20", "15,10%"},
		{"TAEE11", "34,20", "8,90", "1,60", "8,60%", "42,00%", "13,40%", "19,80%", "95.000.000,00", "7.900.000.000,00", "1,35", "9,20%"},
		{"CMIG4", "10,90", "5,80", "1,10", "10,10%", "17,00%", "14,20%", "20,50%", "210.000.000,00", "24.000.000.000,00", "0,62", "7,80%"},
		{"VALE3", "61,40", "6,90", "1,25", "7,10%", "16,80%", "15,00%", "17,20%", "1.450.000.000,00", "190.000.000.000,00", "0,48", "4,10%"},
		{"MGLU3", "9,30", "-12,40", "1,90", "0,00%", "-3,10%", "-1,20%", "-8,00%", "320.000.000,00", "11.000.000.000,00", "1,10", "18,00%"},
		{"OIBR3", "0,45", "0,80", "-0,30", "0,00%", "45,00%", "2,00%", "-60,00%", "22.000.000,00", "-9.000.000.000,00", "0,00", "-15,00%"},
	}
	return buildDemo(cols, rows)
}

// DemoFunds is a small FII table in fundamentus format for offline runs.
func DemoFunds() RawTable {
	rows := [][]string{
		{"MXRF11", "Papel", "10,35", "11,20%", "12,40%", "1,02", "2.800.000.000", "12.500.000,00", "0", "0,00", "0,00", "0,00%", "0,00%"},
		{"KNCR11", "Recebíveis", "98,10", "12,10%", "11,90%", "0,98", "6.200.000.000", "9.400.000,00", "0", "0,00", "0,00", "0,00%", "0,00%"},
		{"HGLG11", "Logística", "158,00", "7,80%", "8,30%", "0,94", "4.900.000.000", "7.100.000,00", "21", "4.800,00", "31,00", "7,90%", "4,10%"},
		{"XPML11", "Shoppings", "101,20", "8,40%", "8,90%", "0,91", "4.100.000.000", "8.800.000,00", "14", "12.400,00", "95,00", "8,20%", "5,20%"},
		{"VGHF11", "Híbrido", "8,60", "13,00%", "13,80%", "0,83", "1.500.000.000", "4.300.000,00", "0", "0,00", "0,00", "0,00%", "0,00%"},
		{"BCFF11", "Títulos e Val. Mob.", "7,90", "9,00%", "9,40%", "0,88", "1.900.000.000", "150.000,00", "0", "0,00", "0,00", "0,00%", "0,00%"},
	}
	return buildDemo(FundColumns, rows)
}

func buildDemo(cols []string, rows [][]string) RawTable {
	t := RawTable{Columns: cols}
	for _, r := range rows {
		fields := make(map[string]string, len(cols))
		for i, c := range cols {
			fields[c] = r[i]
		}
		t.Rows = append(t.Rows, RawRow{Ticker: r[0], Fields: fields})
	}
	return t
}

// DemoQuotes derives quote snapshots for every demo ticker.
func DemoQuotes() map[string]Quote {
	out := make(map[string]Quote)
	add := func(t RawTable, priceCol, dyCol, sectorCol string, cat model.Category) {
		for _, r := range t.Rows {
			price, _ := ParseNumber(r.Fields[priceCol])
			dy, _ := ParseNumber(r.Fields[dyCol])
			sector := r.Fields[sectorCol]
			if sector == "" {
				sector = "Outros"
			}
			sym := model.NormalizeTicker(r.Ticker)
			out[sym] = Quote{Ticker: sym, Price: price, DividendYield: dy, Category: cat, Sector: sector}
		}
	}
	add(DemoEquities(), "Cotação", "Div.Yield", "", model.CategoryEquity)
	add(DemoFunds(), "Cotação", "Dividend Yield", "Segmento", model.CategoryFund)
	return out
}
