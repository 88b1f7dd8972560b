package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bizops-platform/inventory-service/pkg/api"
	"github.com/bizops-platform/inventory-service/pkg/errors"
	"github.com/bizops-platform/inventory-service/pkg/logging"
	"github.com/bizops-platform/inventory-service/pkg/middleware"

	"github.com/bizops-platform/inventory-service/internal/application"
)

// respond sends a service result or maps the error onto the wire format.
func respond(c *gin.Context, logger *logging.Logger, status int, result any, err error) {
	if err != nil {
		responder := middleware.NewErrorResponder(c, logger.Logger)
		if appErr, ok := errors.AsAppError(err); ok {
			responder.RespondWithAppError(appErr)
		} else {
			responder.RespondInternalError(err)
		}
		return
	}
	c.JSON(status, result)
}

func createItemHandler(service *application.StockApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			SKU            string `json:"sku" binding:"required"`
			ProductName    string `json:"productName" binding:"required"`
			UnitPriceCents int64  `json:"unitPriceCents" binding:"min=0"`
			Currency       string `json:"currency" binding:"required,len=3"`
			OpeningQty     int    `json:"openingQty" binding:"min=0"`
			OpeningBuffer  int    `json:"openingBuffer" binding:"min=0"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			middleware.NewErrorResponder(c, logger.Logger).RespondWithAppError(appErr)
			return
		}

		cmd := application.CreateItemCommand{
			SKU:            req.SKU,
			ProductName:    req.ProductName,
			UnitPriceCents: req.UnitPriceCents,
			Currency:       req.Currency,
			OpeningQty:     req.OpeningQty,
			OpeningBuffer:  req.OpeningBuffer,
			Actor:          middleware.GetActorID(c),
		}

		item, err := service.CreateItem(c.Request.Context(), cmd)
		respond(c, logger, http.StatusCreated, item, err)
	}
}

func listItemsHandler(service *application.StockApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := api.ParsePagination(c)

		items, err := service.ListItems(c.Request.Context(), application.ListItemsQuery{
			Limit:  int(page.GetLimit()),
			Offset: int(page.GetOffset()),
		})
		respond(c, logger, http.StatusOK, items, err)
	}
}

func getItemHandler(service *application.StockApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		item, err := service.GetItem(c.Request.Context(), application.GetItemQuery{SKU: c.Param("sku")})
		respond(c, logger, http.StatusOK, item, err)
	}
}

func addBufferHandler(service *application.StockApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Quantity int `json:"quantity" binding:"required,gt=0"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			middleware.NewErrorResponder(c, logger.Logger).RespondWithAppError(appErr)
			return
		}

		item, err := service.AddBuffer(c.Request.Context(), application.AddBufferCommand{
			SKU:      c.Param("sku"),
			Quantity: req.Quantity,
			Actor:    middleware.GetActorID(c),
		})
		respond(c, logger, http.StatusOK, item, err)
	}
}

func transferBufferHandler(service *application.StockApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Quantity int `json:"quantity" binding:"required,gt=0"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			middleware.NewErrorResponder(c, logger.Logger).RespondWithAppError(appErr)
			return
		}

		item, err := service.TransferBuffer(c.Request.Context(), application.TransferBufferCommand{
			SKU:      c.Param("sku"),
			Quantity: req.Quantity,
			Actor:    middleware.GetActorID(c),
		})
		respond(c, logger, http.StatusOK, item, err)
	}
}

func listMovementsHandler(service *application.StockApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := api.ParsePagination(c)

		movements, err := service.ListMovements(c.Request.Context(), application.ListMovementsQuery{
			SKU:    c.Param("sku"),
			Limit:  int(page.GetLimit()),
			Offset: int(page.GetOffset()),
		})
		respond(c, logger, http.StatusOK, movements, err)
	}
}

type reserveLineRequest struct {
	SKU      string `json:"sku" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

func toReserveLines(lines []reserveLineRequest) []application.ReserveLine {
	result := make([]application.ReserveLine, 0, len(lines))
	for _, line := range lines {
		result = append(result, application.ReserveLine{SKU: line.SKU, Quantity: line.Quantity})
	}
	return result
}

func reserveHandler(service *application.ReservationApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			FollowUpID string               `json:"followUpId" binding:"required"`
			Lines      []reserveLineRequest `json:"lines" binding:"required,min=1,dive"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			middleware.NewErrorResponder(c, logger.Logger).RespondWithAppError(appErr)
			return
		}

		result, err := service.Reserve(c.Request.Context(), application.ReserveCommand{
			FollowUpID: req.FollowUpID,
			Lines:      toReserveLines(req.Lines),
			Actor:      middleware.GetActorID(c),
		})
		respond(c, logger, http.StatusCreated, result, err)
	}
}

func previewHandler(service *application.ReservationApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Lines []reserveLineRequest `json:"lines" binding:"required,min=1,dive"`
		}
		if appErr := api.BindAndValidate(c, &req); appErr != nil {
			middleware.NewErrorResponder(c, logger.Logger).RespondWithAppError(appErr)
			return
		}

		preview, err := service.Preview(c.Request.Context(), application.PreviewCommand{
			Lines: toReserveLines(req.Lines),
		})
		respond(c, logger, http.StatusOK, preview, err)
	}
}

func getOrderHandler(service *application.ReservationApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := service.GetOrder(c.Request.Context(), application.GetOrderQuery{OrderID: c.Param("orderId")})
		respond(c, logger, http.StatusOK, order, err)
	}
}

func fulfillHandler(service *application.FulfillmentApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := service.Fulfill(c.Request.Context(), application.FulfillCommand{
			OrderID: c.Param("orderId"),
			Actor:   middleware.GetActorID(c),
		})
		respond(c, logger, http.StatusOK, order, err)
	}
}

func cancelHandler(service *application.ReservationApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		order, err := service.Cancel(c.Request.Context(), application.CancelCommand{
			OrderID: c.Param("orderId"),
			Actor:   middleware.GetActorID(c),
		})
		respond(c, logger, http.StatusOK, order, err)
	}
}

func listFollowUpOrdersHandler(service *application.ReservationApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orders, err := service.ListFollowUpOrders(c.Request.Context(), application.ListFollowUpOrdersQuery{
			FollowUpID: c.Param("followUpId"),
		})
		respond(c, logger, http.StatusOK, orders, err)
	}
}

func listDemandsHandler(service *application.ReservationApplicationService, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := api.ParsePagination(c)

		demands, err := service.ListOpenDemands(c.Request.Context(), application.ListDemandsQuery{
			Limit:  int(page.GetLimit()),
			Offset: int(page.GetOffset()),
		})
		respond(c, logger, http.StatusOK, demands, err)
	}
}
