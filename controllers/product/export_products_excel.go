package productcontroller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

// BuildProductsWorkbook renders products in the layout ImportProducts reads back.
func BuildProductsWorkbook(products []models.Product) (*xlsx.File, error) {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Products")
	if err != nil {
		return nil, err
	}

	headerRow := sheet.AddRow()
	for _, h := range excelHeaders {
		headerRow.AddCell().SetValue(h)
	}
	for _, p := range products {
		row := sheet.AddRow()
		row.AddCell().SetValue(p.ID)
		row.AddCell().SetValue(p.Name)
		row.AddCell().SetValue(p.Description)
		row.AddCell().SetString(p.Price.StringFixed(2))
		row.AddCell().SetValue(p.Image)
	}
	return file, nil
}

func ExportProductsToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var products []models.Product
		if err := db.WithContext(c.Request.Context()).Order("name, id").Find(&products).Error; err != nil {
			middleware.RespondError(c, apperr.Internal("Failed to fetch products", err))
			return
		}

		file, err := BuildProductsWorkbook(products)
		if err != nil {
			middleware.RespondError(c, apperr.Internal("Failed to create Excel sheet", err))
			return
		}

		// Set response headers for download
		c.Header("Content-Disposition", "attachment; filename=products.xlsx")
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Transfer-Encoding", "binary")
		c.Header("Expires", "0")
		c.Status(http.StatusOK)

		if err := file.Write(c.Writer); err != nil {
			middleware.Logger(c).Error("write products workbook", "err", err)
		}
	}
}
