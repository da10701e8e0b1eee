package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/urbanpizzeria/pos-backend/pkg/enums"
	pkgerrors "github.com/urbanpizzeria/pos-backend/pkg/errors"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParseOrderTypeParam resolves a URL or query value to an order type.
func ParseOrderTypeParam(raw string) (enums.OrderType, error) {
	orderType, err := enums.ParseOrderType(raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown order type").
			WithDetails(map[string]any{"orderType": raw})
	}
	return orderType, nil
}
