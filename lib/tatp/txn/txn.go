package txn

import (
	"context"
	"fmt"
	"time"

	"github.com/ValentinKolb/tatp/lib/skv"
	"github.com/cockroachdb/errors"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("txn")

// Txn is one TATP transaction. Only the parameters matching Kind are used.
//
// Thread-safety: a Txn must not be attempted concurrently.
type Txn struct {
	Kind Kind

	GetSubscriberData    GetSubscriberDataParams
	GetNewDestination    GetNewDestinationParams
	GetAccessData        GetAccessDataParams
	UpdateSubscriberData UpdateSubscriberDataParams

	// Deadline of the skv transaction, zero means skv.DefaultDeadline.
	Deadline time.Duration

	// abort makes the attempt end its transaction with commit=false. None of
	// the transaction types sets it.
	abort bool
}

// Attempt runs the transaction once. It returns whether the business logic
// succeeded. An error is returned if the attempt could not be executed at
// all (for example because the skv transaction could not be started).
func (t *Txn) Attempt(ctx context.Context, client skv.Client) (bool, error) {
	deadline := t.Deadline
	if deadline == 0 {
		deadline = skv.DefaultDeadline
	}

	handle, err := client.BeginTxn(ctx, skv.TxnOptions{Deadline: deadline})
	if err != nil {
		return false, errors.Wrapf(err, "begin %s", t.Kind)
	}

	var ok bool
	switch t.Kind {
	case KindGetSubscriberData:
		ok = t.getSubscriberData(ctx, handle)
	case KindGetNewDestination:
		ok = t.getNewDestination(ctx, handle)
	case KindGetAccessData:
		ok = t.getAccessData(ctx, handle)
	case KindUpdateSubscriberData:
		ok = t.updateSubscriberData(ctx, handle)
	default:
		handle.End(ctx, false)
		return false, errors.Newf("unknown transaction kind %d", t.Kind)
	}

	res := handle.End(ctx, !t.abort)
	if !res.Status.Is2xxOK() {
		log.Warningf("TATP %s end of txn %s failed: %s", t.Kind, handle.ID(), res.Status)
		return false, nil
	}
	return ok, nil
}

// Run runs the transaction once like Attempt, but never fails: errors and
// panics of the attempt are logged and reported as false.
func (t *Txn) Run(ctx context.Context, client skv.Client) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("TATP %s panicked: %v", t.Kind, r)
			ok = false
		}
	}()

	ok, err := t.Attempt(ctx, client)
	if err != nil {
		log.Warningf("TATP %s failed: %v", t.Kind, err)
		return false
	}
	return ok
}

func (t *Txn) String() string {
	switch t.Kind {
	case KindGetSubscriberData:
		return fmt.Sprintf("%s%+v", t.Kind, t.GetSubscriberData)
	case KindGetNewDestination:
		return fmt.Sprintf("%s%+v", t.Kind, t.GetNewDestination)
	case KindGetAccessData:
		return fmt.Sprintf("%s%+v", t.Kind, t.GetAccessData)
	case KindUpdateSubscriberData:
		return fmt.Sprintf("%s%+v", t.Kind, t.UpdateSubscriberData)
	default:
		return t.Kind.String()
	}
}
