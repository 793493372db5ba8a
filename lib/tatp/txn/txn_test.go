package txn

import (
	"context"
	"testing"
	"time"

	"github.com/ValentinKolb/tatp/lib/random"
	"github.com/ValentinKolb/tatp/lib/retry"
	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/ValentinKolb/tatp/lib/skv/codec"
	"github.com/ValentinKolb/tatp/lib/skv/local"
	"github.com/ValentinKolb/tatp/lib/store/lstore"
	"github.com/ValentinKolb/tatp/lib/tatp/schema"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func newClient(t *testing.T) skv.Client {
	t.Helper()
	catalog, err := schema.NewCatalog()
	require.NoError(t, err)
	return local.NewClient(catalog, lstore.NewLocalStore(), codec.NewBinaryCodec())
}

// load writes the rows in one committed transaction.
func load(t *testing.T, client skv.Client, rows ...skv.Row) {
	t.Helper()
	ctx := context.Background()
	txn, err := client.BeginTxn(ctx, skv.TxnOptions{})
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, skv.WriteRow(ctx, txn, row, false))
	}
	require.True(t, txn.End(ctx, true).Status.Is2xxOK())
}

// readRow reads a record in its own transaction.
func readRow(t *testing.T, client skv.Client, key *skv.Record) skv.ReadResult {
	t.Helper()
	ctx := context.Background()
	txn, err := client.BeginTxn(ctx, skv.TxnOptions{})
	require.NoError(t, err)
	defer txn.End(ctx, false)
	return txn.Read(ctx, key)
}

func subscriber(id int32, bits int16) schema.Subscriber {
	return schema.Subscriber{SID: id, SubNbr: schema.PhoneNumber(id), Bits: bits}
}

func facility(id int32, sfType, dataA int16) schema.SpecialFacility {
	return schema.SpecialFacility{SID: id, SFType: sfType, IsActive: 1, DataA: dataA, DataB: "ABCDE"}
}

type failingClient struct {
	skv.Client
	panics bool
}

func (c failingClient) BeginTxn(ctx context.Context, opts skv.TxnOptions) (skv.Txn, error) {
	if c.panics {
		panic("store gone")
	}
	return nil, errors.New("no connection")
}

// wrongRecordClient answers every read with a subscriber record.
type wrongRecordClient struct {
	skv.Client
}

func (c wrongRecordClient) BeginTxn(ctx context.Context, opts skv.TxnOptions) (skv.Txn, error) {
	return wrongRecordTxn{}, nil
}

type wrongRecordTxn struct {
	skv.Txn
}

func (wrongRecordTxn) ID() string { return "wrong-record" }

func (wrongRecordTxn) Read(ctx context.Context, key *skv.Record) skv.ReadResult {
	return skv.ReadResult{Status: skv.NewStatus(skv.CodeOK, ""), Record: subscriber(1, 0).ToRecord()}
}

func (wrongRecordTxn) End(ctx context.Context, commit bool) skv.EndResult {
	return skv.EndResult{Status: skv.NewStatus(skv.CodeOK, "")}
}

// --------------------------------------------------------------------------
// Tests
// --------------------------------------------------------------------------

func TestGetSubscriberData(t *testing.T) {
	client := newClient(t)
	load(t, client, subscriber(1, 0))
	ctx := context.Background()

	assert.True(t, NewGetSubscriberData(GetSubscriberDataParams{SubID: 1}).Run(ctx, client))
	assert.False(t, NewGetSubscriberData(GetSubscriberDataParams{SubID: 2}).Run(ctx, client))
}

func TestGetNewDestination(t *testing.T) {
	client := newClient(t)
	load(t, client,
		subscriber(1, 0),
		facility(1, 1, 0),
		schema.CallForwarding{SID: 1, SFType: 1, StartTime: 0, EndTime: 5, NumberX: "123456789012345"},
		// other facility of the same subscriber, must not be selected
		facility(1, 2, 0),
		schema.CallForwarding{SID: 1, SFType: 2, StartTime: 8, EndTime: 24, NumberX: "123456789012345"},
	)
	ctx := context.Background()

	tests := []struct {
		name   string
		params GetNewDestinationParams
		want   bool
	}{
		{"Match", GetNewDestinationParams{SubID: 1, SFType: 1, StartTime: 0, EndTime: 3}, true},
		{"EndTimeTooLate", GetNewDestinationParams{SubID: 1, SFType: 1, StartTime: 0, EndTime: 5}, false},
		{"OtherFacilityNotSelected", GetNewDestinationParams{SubID: 1, SFType: 1, StartTime: 8, EndTime: 10}, false},
		{"StartTimeTooEarly", GetNewDestinationParams{SubID: 1, SFType: 2, StartTime: 0, EndTime: 10}, false},
		{"SecondFacility", GetNewDestinationParams{SubID: 1, SFType: 2, StartTime: 16, EndTime: 20}, true},
		{"MissingFacility", GetNewDestinationParams{SubID: 1, SFType: 3, StartTime: 16, EndTime: 1}, false},
		{"MissingSubscriber", GetNewDestinationParams{SubID: 2, SFType: 1, StartTime: 0, EndTime: 3}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewGetNewDestination(tt.params).Run(ctx, client))
		})
	}
}

func TestCallForwardingQuery(t *testing.T) {
	q := callForwardingQuery(GetNewDestinationParams{SubID: 7, SFType: 3, StartTime: 8, EndTime: 12})
	assert.Same(t, schema.CallForwardingSchema, q.Schema)
	assert.Equal(t, -1, q.Limit)
	assert.False(t, q.Reverse)
	assert.Equal(t, q.StartScanKey.Values, q.EndScanKey.Values)
	assert.Equal(t, skv.OpAND, q.Filter.Op)
	require.Len(t, q.Filter.Children, 2)
	assert.Equal(t, skv.OpLTE, q.Filter.Children[0].Op)
	assert.Equal(t, skv.OpGT, q.Filter.Children[1].Op)
}

func TestGetAccessData(t *testing.T) {
	client := newClient(t)
	load(t, client,
		subscriber(1, 0),
		schema.AccessInfo{SID: 1, AIType: 2, Data1: 1, Data2: 2, Data3: "ABC", Data4: "ABCD"},
	)
	ctx := context.Background()

	assert.True(t, NewGetAccessData(GetAccessDataParams{SubID: 1, AIType: 2}).Run(ctx, client))
	// a missing access info is not a failure
	assert.True(t, NewGetAccessData(GetAccessDataParams{SubID: 1, AIType: 3}).Run(ctx, client))
	// an undecodable row is logged, the read itself succeeded
	ok, err := NewGetAccessData(GetAccessDataParams{SubID: 1, AIType: 2}).Attempt(ctx, wrongRecordClient{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUpdateSubscriberData(t *testing.T) {
	ctx := context.Background()

	t.Run("SetsBitZero", func(t *testing.T) {
		client := newClient(t)
		load(t, client, subscriber(1, 0b1010), facility(1, 1, 7))

		ok := NewUpdateSubscriberData(UpdateSubscriberDataParams{SubID: 1, SFType: 1, Bit1: 1, DataA: 200}).Run(ctx, client)
		require.True(t, ok)

		sub, err := schema.SubscriberFromRecord(readRow(t, client, schema.SubscriberKey(1)).Record)
		require.NoError(t, err)
		assert.Equal(t, int16(0b1011), sub.Bits)
		assert.Equal(t, schema.PhoneNumber(1), sub.SubNbr)

		sf, err := schema.SpecialFacilityFromRecord(readRow(t, client, schema.SpecialFacilityKey(1, 1)).Record)
		require.NoError(t, err)
		assert.Equal(t, int16(200), sf.DataA)
		assert.Equal(t, "ABCDE", sf.DataB)
	})

	t.Run("ClearsBitZero", func(t *testing.T) {
		client := newClient(t)
		load(t, client, subscriber(1, -1))

		ok := NewUpdateSubscriberData(UpdateSubscriberDataParams{SubID: 1, SFType: 1, Bit1: 0, DataA: 1}).Run(ctx, client)
		require.True(t, ok)

		sub, err := schema.SubscriberFromRecord(readRow(t, client, schema.SubscriberKey(1)).Record)
		require.NoError(t, err)
		assert.Equal(t, int16(-2), sub.Bits)
	})

	t.Run("MissingFacilityAccepted", func(t *testing.T) {
		client := newClient(t)
		load(t, client, subscriber(1, 0))

		ok := NewUpdateSubscriberData(UpdateSubscriberDataParams{SubID: 1, SFType: 4, Bit1: 1, DataA: 1}).Run(ctx, client)
		assert.True(t, ok)
		assert.True(t, readRow(t, client, schema.SpecialFacilityKey(1, 4)).Status.IsNotFound())
	})

	t.Run("MissingSubscriber", func(t *testing.T) {
		client := newClient(t)
		load(t, client, facility(1, 1, 7))

		ok := NewUpdateSubscriberData(UpdateSubscriberDataParams{SubID: 1, SFType: 1, Bit1: 1, DataA: 100}).Run(ctx, client)
		assert.False(t, ok)
		// the facility branch ran, but its write is committed with the failed txn
		sf, err := schema.SpecialFacilityFromRecord(readRow(t, client, schema.SpecialFacilityKey(1, 1)).Record)
		require.NoError(t, err)
		assert.Equal(t, int16(100), sf.DataA)
	})
}

func TestConflictIsRetried(t *testing.T) {
	client := newClient(t)
	load(t, client, subscriber(1, 0))
	ctx := context.Background()

	blocker, err := client.BeginTxn(ctx, skv.TxnOptions{})
	require.NoError(t, err)
	require.True(t, blocker.Read(ctx, schema.SubscriberKey(1)).Status.Is2xxOK())

	tx := NewGetSubscriberData(GetSubscriberDataParams{SubID: 1})
	ok, err := tx.Attempt(ctx, client)
	require.NoError(t, err)
	assert.False(t, ok)

	attempts := 0
	err = retry.NewFixed(3).Run(ctx, func(ctx context.Context) (bool, error) {
		attempts++
		if attempts == 2 {
			blocker.End(ctx, false)
		}
		return tx.Attempt(ctx, client)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestDeadline(t *testing.T) {
	client := newClient(t)
	load(t, client, subscriber(1, 0))

	tx := NewGetSubscriberData(GetSubscriberDataParams{SubID: 1})
	tx.Deadline = time.Nanosecond
	time.Sleep(time.Millisecond)
	assert.False(t, tx.Run(context.Background(), client))
}

func TestBeginFailure(t *testing.T) {
	ctx := context.Background()
	tx := NewGetSubscriberData(GetSubscriberDataParams{SubID: 1})

	ok, err := tx.Attempt(ctx, failingClient{})
	assert.False(t, ok)
	assert.Error(t, err)

	assert.False(t, tx.Run(ctx, failingClient{}))
	assert.False(t, tx.Run(ctx, failingClient{panics: true}))
}

func TestNew(t *testing.T) {
	rnd := random.New(1)
	for i := 0; i < 1000; i++ {
		for _, kind := range Kinds {
			tx, err := New(kind, rnd, 50)
			require.NoError(t, err)
			require.Equal(t, kind, tx.Kind)

			switch kind {
			case KindGetSubscriberData:
				assert.True(t, tx.GetSubscriberData.SubID >= 1 && tx.GetSubscriberData.SubID <= 50)
			case KindGetNewDestination:
				p := tx.GetNewDestination
				assert.True(t, p.SubID >= 1 && p.SubID <= 50)
				assert.True(t, p.SFType >= 1 && p.SFType <= 4)
				assert.Contains(t, []int16{0, 8, 16}, p.StartTime)
				assert.True(t, p.EndTime >= 1 && p.EndTime <= 24)
			case KindGetAccessData:
				p := tx.GetAccessData
				assert.True(t, p.SubID >= 1 && p.SubID <= 50)
				assert.True(t, p.AIType >= 1 && p.AIType <= 4)
			case KindUpdateSubscriberData:
				p := tx.UpdateSubscriberData
				assert.True(t, p.SubID >= 1 && p.SubID <= 50)
				assert.True(t, p.SFType >= 1 && p.SFType <= 4)
				assert.True(t, p.Bit1 == 0 || p.Bit1 == 1)
				assert.True(t, p.DataA >= 0 && p.DataA <= 255)
			}
		}
	}

	_, err := New(Kind(42), rnd, 50)
	assert.Error(t, err)
}

func TestParseKind(t *testing.T) {
	for _, kind := range Kinds {
		parsed, err := ParseKind(kind.String())
		require.NoError(t, err)
		assert.Equal(t, kind, parsed)
	}
	_, err := ParseKind("delete-call-forwarding")
	assert.Error(t, err)
}
