package http

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/garyjia/budget-ledger/internal/application/service"
	"github.com/garyjia/budget-ledger/internal/domain/entity"
	"github.com/garyjia/budget-ledger/pkg/utils"
)

// itemID accepts both numeric ids of stored items and string ids
// such as "temp-1" generated by clients for new items.
type itemID string

func (id *itemID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = itemID(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid item id %s", data)
	}
	if _, err := n.Int64(); err != nil {
		return fmt.Errorf("invalid item id %s", data)
	}
	*id = itemID(n.String())
	return nil
}

type expenseItemBody struct {
	ID           itemID        `json:"id"`
	Category     string        `json:"category"`
	Description  string        `json:"description"`
	Quantity     float64       `json:"quantity"`
	UnitPrice    entity.Money  `json:"unitPrice"`
	Total        entity.Money  `json:"total"`
	ActualAmount *entity.Money `json:"actualAmount"`
}

func (b expenseItemBody) toInput(index int) (service.ExpenseItemInput, error) {
	field := fmt.Sprintf("expenseItems[%d]", index)
	if err := utils.ValidateQuantity(b.Quantity); err != nil {
		return service.ExpenseItemInput{}, &service.ValidationError{Field: field + ".quantity", Message: err.Error()}
	}
	if err := validateAmounts(field, b.UnitPrice, b.Total, entity.ValueOrZero(b.ActualAmount)); err != nil {
		return service.ExpenseItemInput{}, err
	}

	return service.ExpenseItemInput{
		ID:           string(b.ID),
		Category:     utils.SanitizeString(b.Category),
		Description:  utils.SanitizeString(b.Description),
		Quantity:     b.Quantity,
		UnitPrice:    b.UnitPrice,
		Total:        b.Total,
		ActualAmount: b.ActualAmount,
	}, nil
}

func toItemInputs(items []expenseItemBody) ([]service.ExpenseItemInput, error) {
	inputs := make([]service.ExpenseItemInput, 0, len(items))
	for i, item := range items {
		input, err := item.toInput(i)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

type createRequestBody struct {
	Project       string            `json:"project"`
	Category      string            `json:"category"`
	SubActivityID *int64            `json:"subActivityId"`
	RequesterID   string            `json:"requesterId"`
	Amount        entity.Money      `json:"amount"`
	ExpenseItems  []expenseItemBody `json:"expenseItems"`
}

func (b createRequestBody) toInput() (service.CreateRequestInput, error) {
	if err := validateAmounts("amount", b.Amount); err != nil {
		return service.CreateRequestInput{}, err
	}
	items, err := toItemInputs(b.ExpenseItems)
	if err != nil {
		return service.CreateRequestInput{}, err
	}

	return service.CreateRequestInput{
		Project:       utils.SanitizeString(b.Project),
		Category:      utils.SanitizeString(b.Category),
		SubActivityID: b.SubActivityID,
		RequesterID:   utils.SanitizeString(b.RequesterID),
		Amount:        b.Amount,
		ExpenseItems:  items,
	}, nil
}

type approveBody struct {
	ApproverID string `json:"approverId"`
}

type rejectBody struct {
	ApproverID string `json:"approverId"`
	Reason     string `json:"reason"`
}

type submitExpenseBody struct {
	ExpenseItems []expenseItemBody `json:"expenseItems"`
	ActualTotal  entity.Money      `json:"actualTotal"`
	ReturnAmount entity.Money      `json:"returnAmount"`
}

func (b submitExpenseBody) toInput() (service.SubmitExpenseInput, error) {
	if err := validateAmounts("actualTotal", b.ActualTotal); err != nil {
		return service.SubmitExpenseInput{}, err
	}
	if err := validateAmounts("returnAmount", b.ReturnAmount); err != nil {
		return service.SubmitExpenseInput{}, err
	}
	items, err := toItemInputs(b.ExpenseItems)
	if err != nil {
		return service.SubmitExpenseInput{}, err
	}

	return service.SubmitExpenseInput{
		ExpenseItems: items,
		ActualTotal:  b.ActualTotal,
		ReturnAmount: b.ReturnAmount,
	}, nil
}

type reasonBody struct {
	Reason string `json:"reason"`
}

type statusBody struct {
	Status string `json:"status"`
}

type createCategoryBody struct {
	Name      string       `json:"name"`
	Allocated entity.Money `json:"allocated"`
	Year      int          `json:"year"`
}

type createSubActivityBody struct {
	CategoryID int64        `json:"categoryId"`
	ParentID   *int64       `json:"parentId"`
	Name       string       `json:"name"`
	Allocated  entity.Money `json:"allocated"`
}

func validateAmounts(field string, amounts ...entity.Money) error {
	for _, m := range amounts {
		if err := utils.ValidateAmount(m.Decimal()); err != nil {
			return &service.ValidationError{Field: field, Message: err.Error()}
		}
	}
	return nil
}
