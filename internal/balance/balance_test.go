package balance

import (
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/razao/internal/dates"
	"github.com/cleared-dev/razao/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func posting(id, account string, side model.Side, amount string, d civil.Date) model.Posting {
	return model.Posting{ID: id, AccountID: account, Side: side, Amount: dec(amount), Date: d}
}

func TestCompute(t *testing.T) {
	in := []model.Posting{
		posting("b-d", "cash", model.SideDebit, "50", date(2025, 2, 1)),
		posting("b-c", "rev", model.SideCredit, "50", date(2025, 2, 1)),
		posting("a-d", "cash", model.SideDebit, "100", date(2025, 1, 15)),
		posting("a-c", "rev", model.SideCredit, "100", date(2025, 1, 15)),
		posting("c-d", "exp", model.SideDebit, "30", date(2025, 3, 1)),
		posting("c-c", "cash", model.SideCredit, "30", date(2025, 3, 1)),
	}

	out := Compute(in)
	require.Len(t, out, 6)

	ids := make([]string, len(out))
	for i, p := range out {
		ids[i] = p.ID
	}
	assert.Equal(t, []string{"a-d", "a-c", "b-d", "b-c", "c-d", "c-c"}, ids)

	assert.Equal(t, "100", out[0].Balance.String())
	assert.Equal(t, "-100", out[1].Balance.String())
	assert.Equal(t, "150", out[2].Balance.String())
	assert.Equal(t, "-150", out[3].Balance.String())
	assert.Equal(t, "30", out[4].Balance.String())
	assert.Equal(t, "120", out[5].Balance.String())

	assert.True(t, in[0].Balance.IsZero(), "input is not modified")
}

func TestCompute_StableTies(t *testing.T) {
	d := date(2025, 1, 1)
	in := []model.Posting{
		posting("z-d", "cash", model.SideDebit, "1", d),
		posting("y-d", "cash", model.SideDebit, "2", d),
		posting("x-c", "cash", model.SideCredit, "3", d),
	}
	out := Compute(in)
	assert.Equal(t, "z-d", out[0].ID)
	assert.Equal(t, "y-d", out[1].ID)
	assert.Equal(t, "x-c", out[2].ID)
	assert.Equal(t, "1", out[0].Balance.String())
	assert.Equal(t, "3", out[1].Balance.String())
	assert.Equal(t, "0", out[2].Balance.String())
}

func TestCompute_MixedDateSources(t *testing.T) {
	iso, err := dates.Parse("2025-01-31")
	require.NoError(t, err)
	display, err := dates.Parse("01/02/2025")
	require.NoError(t, err)

	out := Compute([]model.Posting{
		posting("late", "cash", model.SideDebit, "1", display),
		posting("early", "cash", model.SideDebit, "1", iso),
	})
	assert.Equal(t, "early", out[0].ID)
	assert.Equal(t, "late", out[1].ID)
}

func TestBalanceInvariant(t *testing.T) {
	accounts := []string{"a", "b", "c", "d"}
	var in []model.Posting
	for i := 0; i < 200; i++ {
		side := model.SideDebit
		if i%3 == 0 {
			side = model.SideCredit
		}
		in = append(in, model.Posting{
			ID:        fmt.Sprintf("t%d-%s", i, side[:1]),
			AccountID: accounts[(i*7)%len(accounts)],
			Side:      side,
			Amount:    decimal.New(int64(i*37%1000+1), -2),
			Date:      date(2025, time.Month(i%12+1), i%28+1),
		})
	}

	out := Compute(in)
	want := Totals(in)

	last := make(map[string]decimal.Decimal)
	for _, p := range out {
		last[p.AccountID] = p.Balance
	}
	require.Len(t, last, len(want))
	for acct, total := range want {
		assert.True(t, total.Equal(last[acct]), "account %s: running %s, total %s", acct, last[acct], total)
	}
}

func TestCompute_Empty(t *testing.T) {
	assert.Empty(t, Compute(nil))
}

func TestTrialBalance(t *testing.T) {
	in := []model.Posting{
		{AccountID: "rev", AccountCode: "3.01", Side: model.SideCredit, Amount: dec("100")},
		{AccountID: "cash", AccountCode: "1.01", Side: model.SideDebit, Amount: dec("100")},
		{AccountID: "cash", AccountCode: "1.01", Side: model.SideCredit, Amount: dec("40")},
		{AccountID: "exp", AccountCode: "4.01", Side: model.SideDebit, Amount: dec("40")},
	}
	rows := TrialBalance(in)
	require.Len(t, rows, 3)
	assert.Equal(t, "cash", rows[0].AccountID)
	assert.Equal(t, "100", rows[0].Debit.String())
	assert.Equal(t, "40", rows[0].Credit.String())
	assert.Equal(t, "60", rows[0].Net().String())
	assert.Equal(t, "rev", rows[1].AccountID)
	assert.Equal(t, "-100", rows[1].Net().String())

	sum := decimal.Zero
	for _, r := range rows {
		sum = sum.Add(r.Net())
	}
	assert.True(t, sum.IsZero(), "balanced postings net to zero")
}
