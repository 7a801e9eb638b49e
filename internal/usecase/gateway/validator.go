package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	domainGateway "gateway-registry/internal/domain/gateway"
	"gateway-registry/internal/validator"
	appErrors "gateway-registry/pkg/errors"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
)

var (
	gatewayFields = []string{
		domainGateway.FieldSerialNumber,
		domainGateway.FieldName,
		domainGateway.FieldIPv4Address,
		domainGateway.FieldPeripheralDevices,
	}

	// Also the projection applied to submitted devices on update and add.
	deviceFields = []string{
		domainGateway.FieldUID,
		domainGateway.FieldVendor,
		domainGateway.FieldDateCreated,
		domainGateway.FieldStatus,
	}
)

const (
	msgInvalidIPv4  = "ipv4Address must be a valid IPv4 address"
	msgDeviceStatus = "must be one of [online, offline]"
)

// ParseGateway checks an untyped gateway payload and returns the typed
// gateway. The first violated field wins, in declared field order.
func ParseGateway(payload map[string]any) (*domainGateway.Gateway, error) {
	if payload == nil {
		return nil, appErrors.NewValidationError("", `"value" must be of type object`)
	}

	g := &domainGateway.Gateway{PeripheralDevices: []domainGateway.Device{}}

	var err error
	if g.SerialNumber, err = requiredString(payload, domainGateway.FieldSerialNumber, ""); err != nil {
		return nil, err
	}
	if g.Name, err = requiredString(payload, domainGateway.FieldName, ""); err != nil {
		return nil, err
	}
	if g.IPv4Address, err = requiredString(payload, domainGateway.FieldIPv4Address, ""); err != nil {
		return nil, err
	}
	if !validator.IsIPv4(g.IPv4Address) {
		return nil, appErrors.NewValidationError(domainGateway.FieldIPv4Address, msgInvalidIPv4)
	}

	if raw, ok := payload[domainGateway.FieldPeripheralDevices]; ok {
		if g.PeripheralDevices, err = parseDevices(raw); err != nil {
			return nil, err
		}
	}

	if err := rejectUnknown(payload, gatewayFields, ""); err != nil {
		return nil, err
	}

	return g, nil
}

// ParseDevice checks a device submitted on its own. dateCreated defaults to
// now and status to offline.
func ParseDevice(payload map[string]any, now time.Time) (*domainGateway.Device, error) {
	if payload == nil {
		return nil, appErrors.NewValidationError("", `"value" must be of type object`)
	}
	return parseDevice(payload, "", &now)
}

// ProjectDeviceFields returns a copy of payload where every submitted device
// keeps only uid, vendor, status and dateCreated. Non-object elements are
// left for the shape check to reject.
func ProjectDeviceFields(payload map[string]any) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = v
	}

	items, ok := payload[domainGateway.FieldPeripheralDevices].([]any)
	if !ok {
		return out
	}

	projected := make([]any, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			projected[i] = item
			continue
		}
		projected[i] = projectDevice(m)
	}
	out[domainGateway.FieldPeripheralDevices] = projected
	return out
}

func projectDevice(m map[string]any) map[string]any {
	out := make(map[string]any, len(deviceFields))
	for _, field := range deviceFields {
		if v, ok := m[field]; ok {
			out[field] = v
		}
	}
	return out
}

// ValidateAggregate re-checks a typed gateway, e.g. after a partial update
// has been merged over the stored record.
func ValidateAggregate(g *domainGateway.Gateway) error {
	if g == nil {
		return appErrors.NewValidationError("", `"value" is required`)
	}
	err := validator.ValidateStruct(g)
	if err == nil {
		return nil
	}

	var fieldErrs govalidator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return appErrors.NewAppError(appErrors.CodeValidation, "Invalid input", err)
	}

	fe := fieldErrs[0]
	label := fieldLabel(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return appErrors.NewValidationError(label, quoted(label, "is required"))
	case "ipv4addr":
		return appErrors.NewValidationError(label, msgInvalidIPv4)
	case "max":
		return appErrors.NewValidationError(label, domainGateway.ErrDeviceLimitReached.Error())
	case "device_status":
		return appErrors.NewValidationError(label, quoted(label, msgDeviceStatus))
	default:
		return appErrors.NewValidationError(label, quoted(label, "is invalid"))
	}
}

func parseDevices(raw any) ([]domainGateway.Device, error) {
	items, ok := raw.([]any)
	if !ok {
		return nil, appErrors.NewValidationError(domainGateway.FieldPeripheralDevices,
			quoted(domainGateway.FieldPeripheralDevices, "must be an array"))
	}
	if len(items) > domainGateway.MaxPeripheralDevices {
		return nil, appErrors.NewValidationError(domainGateway.FieldPeripheralDevices,
			domainGateway.ErrDeviceLimitReached.Error())
	}

	devices := make([]domainGateway.Device, 0, len(items))
	for i, item := range items {
		path := fmt.Sprintf("%s[%d]", domainGateway.FieldPeripheralDevices, i)
		m, ok := item.(map[string]any)
		if !ok {
			return nil, appErrors.NewValidationError(path, quoted(path, "must be of type object"))
		}
		d, err := parseDevice(m, path, nil)
		if err != nil {
			return nil, err
		}
		devices = append(devices, *d)
	}
	return devices, nil
}

// parseDevice validates one device. A nil now makes dateCreated and status
// required; otherwise they are defaulted.
func parseDevice(m map[string]any, path string, now *time.Time) (*domainGateway.Device, error) {
	d := &domainGateway.Device{}

	uidLabel := join(path, domainGateway.FieldUID)
	raw, ok := m[domainGateway.FieldUID]
	if !ok || raw == nil {
		return nil, appErrors.NewValidationError(uidLabel, quoted(uidLabel, "is required"))
	}
	uid, err := toInt64(raw, uidLabel)
	if err != nil {
		return nil, err
	}
	d.UID = uid

	if d.Vendor, err = requiredString(m, domainGateway.FieldVendor, path); err != nil {
		return nil, err
	}

	dateLabel := join(path, domainGateway.FieldDateCreated)
	raw, ok = m[domainGateway.FieldDateCreated]
	switch {
	case ok && raw != nil:
		if d.DateCreated, err = toTime(raw, dateLabel); err != nil {
			return nil, err
		}
	case now != nil:
		d.DateCreated = normalizeTime(*now)
	default:
		return nil, appErrors.NewValidationError(dateLabel, quoted(dateLabel, "is required"))
	}

	statusLabel := join(path, domainGateway.FieldStatus)
	raw, ok = m[domainGateway.FieldStatus]
	switch {
	case ok && raw != nil:
		s, isString := raw.(string)
		if !isString || validator.ValidateVar(s, "device_status") != nil {
			return nil, appErrors.NewValidationError(statusLabel, quoted(statusLabel, msgDeviceStatus))
		}
		d.Status = domainGateway.DeviceStatus(s)
	case now != nil:
		d.Status = domainGateway.StatusOffline
	default:
		return nil, appErrors.NewValidationError(statusLabel, quoted(statusLabel, "is required"))
	}

	if err := rejectUnknown(m, deviceFields, path); err != nil {
		return nil, err
	}

	return d, nil
}

func requiredString(m map[string]any, field, path string) (string, error) {
	label := join(path, field)
	raw, ok := m[field]
	if !ok || raw == nil {
		return "", appErrors.NewValidationError(label, quoted(label, "is required"))
	}
	s, ok := raw.(string)
	if !ok {
		return "", appErrors.NewValidationError(label, quoted(label, "must be a string"))
	}
	if s == "" {
		return "", appErrors.NewValidationError(label, quoted(label, "is not allowed to be empty"))
	}
	return s, nil
}

func toInt64(raw any, label string) (int64, error) {
	notNumber := appErrors.NewValidationError(label, quoted(label, "must be a number"))
	notInteger := appErrors.NewValidationError(label, quoted(label, "must be an integer"))

	var f float64
	switch v := raw.(type) {
	case json.Number:
		i, err := v.Int64()
		if err == nil {
			return i, nil
		}
		if errors.Is(err, strconv.ErrRange) {
			return 0, notInteger
		}
		parsed, err := v.Float64()
		if err != nil {
			return 0, notNumber
		}
		f = parsed
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err == nil {
			return i, nil
		}
		if errors.Is(err, strconv.ErrRange) {
			return 0, notInteger
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, notNumber
		}
		f = parsed
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	default:
		return 0, notNumber
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, notNumber
	}
	if f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, notInteger
	}
	return int64(f), nil
}

// toTime accepts date strings and numbers holding milliseconds since the
// Unix epoch, whether sent as JSON numbers or numeric strings.
func toTime(raw any, label string) (time.Time, error) {
	invalid := appErrors.NewValidationError(label, quoted(label, "must be a valid date"))

	switch v := raw.(type) {
	case time.Time:
		return normalizeTime(v), nil
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return time.Time{}, invalid
		}
		if ms, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
			return normalizeTime(time.UnixMilli(ms)), nil
		}
		t, err := cast.ToTimeE(trimmed)
		if err != nil {
			return time.Time{}, invalid
		}
		return normalizeTime(t), nil
	case json.Number:
		ms, err := v.Int64()
		if err != nil {
			return time.Time{}, invalid
		}
		return normalizeTime(time.UnixMilli(ms)), nil
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return time.Time{}, invalid
		}
		return normalizeTime(time.UnixMilli(int64(v))), nil
	default:
		return time.Time{}, invalid
	}
}

// normalizeTime keeps stored and returned timestamps identical across
// databases with different precision.
func normalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

func rejectUnknown(m map[string]any, allowed []string, path string) error {
	var unknown []string
	for k := range m {
		if !contains(allowed, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	label := join(path, unknown[0])
	return appErrors.NewValidationError(label, quoted(label, "is not allowed"))
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func join(path, field string) string {
	if path == "" {
		return field
	}
	return path + "." + field
}

func quoted(label, text string) string {
	return fmt.Sprintf("%q %s", label, text)
}

var structFieldLabels = map[string]string{
	"SerialNumber":      domainGateway.FieldSerialNumber,
	"Name":              domainGateway.FieldName,
	"IPv4Address":       domainGateway.FieldIPv4Address,
	"PeripheralDevices": domainGateway.FieldPeripheralDevices,
	"UID":               domainGateway.FieldUID,
	"Vendor":            domainGateway.FieldVendor,
	"DateCreated":       domainGateway.FieldDateCreated,
	"Status":            domainGateway.FieldStatus,
}

// fieldLabel turns "Gateway.PeripheralDevices[2].Status" into
// "peripheralDevices[2].status".
func fieldLabel(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, part := range parts {
		name, index := part, ""
		if idx := strings.IndexByte(part, '['); idx >= 0 {
			name, index = part[:idx], part[idx:]
		}
		if label, ok := structFieldLabels[name]; ok {
			name = label
		}
		parts[i] = name + index
	}
	return strings.Join(parts, ".")
}
