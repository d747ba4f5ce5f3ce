package provision

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff"

	"github.com/syntrixbase/schemasync/internal/catalog"
	"github.com/syntrixbase/schemasync/internal/schema"
)

// createAttribute issues the create call matching the attribute's type.
func (o *Orchestrator) createAttribute(ctx context.Context, collectionID string, attr *catalog.Attribute) error {
	const op = "create_attribute"
	dbID := o.opts.DatabaseID

	switch attr.Type {
	case catalog.TypeString:
		def, err := attr.StringDefault()
		if err != nil {
			return invalidAttribute(op, attr, err)
		}
		return o.client.CreateStringAttribute(ctx, dbID, collectionID, schema.StringAttribute{
			Key:      attr.Key,
			Size:     attr.Size,
			Required: attr.Required,
			Default:  def,
		})

	case catalog.TypeInteger:
		def, err := attr.IntegerDefault()
		if err != nil {
			return invalidAttribute(op, attr, err)
		}
		lo, hi, err := attr.IntegerBounds()
		if err != nil {
			return invalidAttribute(op, attr, err)
		}
		return o.client.CreateIntegerAttribute(ctx, dbID, collectionID, schema.IntegerAttribute{
			Key:      attr.Key,
			Required: attr.Required,
			Min:      lo,
			Max:      hi,
			Default:  def,
		})

	case catalog.TypeDouble:
		def, err := attr.DoubleDefault()
		if err != nil {
			return invalidAttribute(op, attr, err)
		}
		return o.client.CreateFloatAttribute(ctx, dbID, collectionID, schema.FloatAttribute{
			Key:      attr.Key,
			Required: attr.Required,
			Min:      attr.Min,
			Max:      attr.Max,
			Default:  def,
		})

	case catalog.TypeBoolean:
		def, err := attr.BooleanDefault()
		if err != nil {
			return invalidAttribute(op, attr, err)
		}
		return o.client.CreateBooleanAttribute(ctx, dbID, collectionID, schema.BooleanAttribute{
			Key:      attr.Key,
			Required: attr.Required,
			Default:  def,
		})

	case catalog.TypeDatetime:
		def, err := attr.DatetimeDefault()
		if err != nil {
			return invalidAttribute(op, attr, err)
		}
		return o.client.CreateDatetimeAttribute(ctx, dbID, collectionID, schema.DatetimeAttribute{
			Key:      attr.Key,
			Required: attr.Required,
			Default:  def,
		})

	default:
		return invalidAttribute(op, attr, fmt.Errorf("unsupported attribute type %q", attr.Type))
	}
}

func invalidAttribute(op string, attr *catalog.Attribute, err error) error {
	e := schema.NewError(schema.KindValidation, op, fmt.Sprintf("attribute %q: %v", attr.Key, err))
	e.Err = err
	return e
}

// awaitAttributes polls attribute status with exponential backoff until every
// key is available, reaches a terminal failure, or the readiness timeout is
// spent. The timeout bounds wall time, including time spent in status calls.
// It returns the keys that never became available.
func (o *Orchestrator) awaitAttributes(ctx context.Context, collectionID string, keys []string) ([]string, error) {
	rc := o.cfg.Readiness

	pollCtx, cancel := context.WithTimeout(ctx, rc.Timeout)
	defer cancel()
	deadline, _ := pollCtx.Deadline()

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = rc.InitialInterval
	exp.MaxInterval = rc.MaxInterval
	exp.MaxElapsedTime = 0
	exp.Reset()
	b := backoff.WithContext(exp, pollCtx)

	var (
		notReady []string
		waited   time.Duration
		pending  = keys
	)
	for len(pending) > 0 {
		var still []string
		for _, key := range pending {
			if pollCtx.Err() != nil {
				still = append(still, key)
				continue
			}
			var attr *schema.Attribute
			err := o.call(pollCtx, func(ctx context.Context) error {
				var err error
				attr, err = o.inspector.GetAttribute(ctx, o.opts.DatabaseID, collectionID, key)
				return err
			})
			if aerr := o.abort(ctx, collectionID); aerr != nil {
				return notReady, aerr
			}
			if err != nil {
				slog.Debug("Attribute status unavailable", "collection", collectionID, "attribute", key, "error", err)
				still = append(still, key)
				continue
			}

			switch {
			case attr.Status == schema.StatusAvailable:
			case attr.Status.Terminal():
				notReady = append(notReady, key)
				msg := fmt.Sprintf("attribute is %s", attr.Status)
				if attr.Error != "" {
					msg += ": " + attr.Error
				}
				o.emitNotReady(collectionID, key, msg)
			default:
				still = append(still, key)
			}
		}
		pending = still
		if len(pending) == 0 {
			break
		}

		next := b.NextBackOff()
		if next == backoff.Stop || waited >= rc.Timeout || pollCtx.Err() != nil {
			for _, key := range pending {
				notReady = append(notReady, key)
				o.emitNotReady(collectionID, key, fmt.Sprintf("not available after %s", rc.Timeout))
			}
			break
		}
		if remaining := rc.Timeout - waited; next > remaining {
			next = remaining
		}
		if remaining := time.Until(deadline); next > remaining {
			next = remaining
		}
		if err := o.sleep(ctx, next, collectionID); err != nil {
			return notReady, err
		}
		waited += next
	}
	return notReady, nil
}

func (o *Orchestrator) emitNotReady(collectionID, key, message string) {
	o.emit(Event{
		Kind:         EventAttributeNotReady,
		DatabaseID:   o.opts.DatabaseID,
		CollectionID: collectionID,
		Key:          key,
		Message:      message,
	})
}
