package productcontroller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/middleware"
	"github.com/junaidrashid-git/storefront-api/models"
	"github.com/junaidrashid-git/storefront-api/pkg/apperr"
	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

// Sheet columns shared by import and export.
var excelHeaders = []string{"ID", "Name", "Description", "Price", "Image"}

type ImportResult struct {
	Created int `json:"created_count"`
	Updated int `json:"updated_count"`
	Skipped int `json:"skipped_count"`
}

// ImportProducts upserts every data row of the first sheet by ID. Rows without an ID,
// or with an ID that doesn't exist yet, create a product.
func ImportProducts(db *gorm.DB, sheet *xlsx.Sheet) ImportResult {
	var res ImportResult
	for i := 1; i < len(sheet.Rows); i++ {
		row := sheet.Rows[i]
		get := func(index int) string {
			if row != nil && index < len(row.Cells) {
				return strings.TrimSpace(row.Cells[index].String())
			}
			return ""
		}

		id, name, description, image := get(0), get(1), get(2), get(4)
		price, err := decimal.NewFromString(get(3))
		if name == "" || err != nil || validPrice(price) != nil {
			res.Skipped++
			continue
		}

		if id != "" {
			var existing models.Product
			err := db.First(&existing, "id = ?", id).Error
			if err == nil {
				updates := map[string]interface{}{"name": name, "description": description, "price": price, "image": image}
				if err := db.Model(&existing).Updates(updates).Error; err != nil {
					res.Skipped++
					continue
				}
				res.Updated++
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				res.Skipped++
				continue
			}
		}

		product := models.Product{ID: id, Name: name, Description: description, Price: price, Image: image}
		if err := db.Create(&product).Error; err != nil {
			res.Skipped++
			continue
		}
		res.Created++
	}
	return res
}

func ImportProductsFromExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		excelFileHeader, err := c.FormFile("file")
		if err != nil {
			middleware.RespondError(c, apperr.InvalidArgument("Excel file is required"))
			return
		}

		file, err := excelFileHeader.Open()
		if err != nil {
			middleware.RespondError(c, apperr.Internal("Failed to open Excel file", err))
			return
		}
		defer file.Close()

		xlFile, err := xlsx.OpenReaderAt(file, excelFileHeader.Size)
		if err != nil {
			middleware.RespondError(c, apperr.InvalidArgument("Failed to parse Excel file"))
			return
		}
		if len(xlFile.Sheets) == 0 || len(xlFile.Sheets[0].Rows) < 2 {
			middleware.RespondError(c, apperr.InvalidArgument("Excel file is empty or missing header row"))
			return
		}

		res := ImportProducts(db.WithContext(c.Request.Context()), xlFile.Sheets[0])
		middleware.Logger(c).Info("products imported", "created", res.Created, "updated", res.Updated, "skipped", res.Skipped)
		c.JSON(http.StatusOK, gin.H{
			"message":       "Import completed",
			"created_count": res.Created,
			"updated_count": res.Updated,
			"skipped_count": res.Skipped,
		})
	}
}
