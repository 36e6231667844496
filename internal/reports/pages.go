package reports

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/reports/svg"
	"github.com/Snowtype/Tesla-Portfolio-Analytics-Platform/internal/warehouse"
)

// RegisterReportPages wires every report module into the registry. The set
// of valid page names is closed here at startup.
func RegisterReportPages(r *Registry, s *Service) {
	r.Register(s.UserSegmentMAUPage())
	r.Register(s.NewSubscribersPage())
	r.Register(s.SalesByCategoryPage())
	r.Register(s.RepurchaseRatePage())
	r.Register(s.RegionalPurchasePage())
	r.Register(s.HeavyUsersByMenuPage())
}

// warehouseTable composes the fully qualified dynamic-table name. Schema and
// prefix come from the closed brand map, never from user input.
func warehouseTable(schema, prefix, suffix string) string {
	return fmt.Sprintf("COMPANY_DW.%s.%s_%s", schema, prefix, suffix)
}

// UserSegmentMAUPage analyses inactive customer segments and MAU counts.
func (s *Service) UserSegmentMAUPage() *Page {
	return &Page{
		Slug:        "user-segment-mau",
		Name:        "User Segment and MAU",
		Description: "This page analyzes inactive customer segments. You can check key user metrics and behavioral patterns.",
		Details: []string{
			"Data: In-app customer activity logs + purchase history",
			"Visualization: registered vs inactive users, MAU bar chart, segment status",
		},
		Build: func(ctx context.Context, req Request) (PageData, error) {
			year, month := yearMonthParams(req.Params, s.now())
			query := fmt.Sprintf(
				"SELECT SEGMENT, USER_COUNT FROM %s WHERE YEAR = $1 AND MON = $2 ORDER BY SEGMENT",
				warehouseTable(req.Scope.Schema, req.Scope.TablePrefix(), "MAU_USERS"),
			)
			rows, err := s.fetch(ctx, req, "mau_users", query, year, month)
			if err != nil {
				return PageData{}, err
			}

			data := PageData{
				Heading:     fmt.Sprintf("%s User Segment and MAU (%d-%02d)", req.Scope.Texts().Title, year, month),
				Description: "Monthly active users broken down by customer segment.",
				Columns:     []string{"SEGMENT", "USER_COUNT"},
				Rows:        tabulate(rows, []string{"SEGMENT", "USER_COUNT"}),
			}
			if len(rows) == 0 {
				data.Notice = "No data for the selected period."
				return data, nil
			}

			values := make([]float64, len(rows))
			labels := make([]string, len(rows))
			for i, row := range rows {
				values[i] = cellFloat(row["USER_COUNT"])
				labels[i] = cellString(row["SEGMENT"])
			}
			chart, err := svg.Bars(0, 0, values, labels, svg.Opts{
				Title: "MAU by segment",
				Color: req.Scope.Texts().ColorPrimary,
			})
			if err != nil {
				return PageData{}, err
			}
			data.Chart = chart
			return data, nil
		},
	}
}

// NewSubscribersPage shows the daily new subscriber trend.
func (s *Service) NewSubscribersPage() *Page {
	return &Page{
		Slug:        "new-subscribers",
		Name:        "Daily New Subscribers",
		Description: "Examine daily new subscriber trends and conduct trend analysis.",
		Details: []string{
			"Data: Daily new subscriber count",
			"Visualization: new subscriber trend graph, weekly/monthly comparison",
		},
		Build: func(ctx context.Context, req Request) (PageData, error) {
			since := s.now().AddDate(0, 0, -30).Format("2006-01-02")
			query := fmt.Sprintf(
				"SELECT SIGNUP_DATE, NEW_USER_COUNT FROM %s WHERE SIGNUP_DATE >= $1 ORDER BY SIGNUP_DATE",
				warehouseTable(req.Scope.Schema, req.Scope.TablePrefix(), "NEW_SUBSCRIBERS"),
			)
			rows, err := s.fetch(ctx, req, "new_subscribers", query, since)
			if err != nil {
				return PageData{}, err
			}

			data := PageData{
				Heading:     fmt.Sprintf("%s Daily New Subscribers", req.Scope.Texts().Title),
				Description: "New subscribers per day over the last 30 days.",
				Columns:     []string{"SIGNUP_DATE", "NEW_USER_COUNT"},
				Rows:        tabulate(rows, []string{"SIGNUP_DATE", "NEW_USER_COUNT"}),
			}
			if len(rows) < 2 {
				data.Notice = "Not enough data points for a trend line."
				return data, nil
			}

			values := make([]float64, len(rows))
			labels := make([]string, len(rows))
			for i, row := range rows {
				values[i] = cellFloat(row["NEW_USER_COUNT"])
				labels[i] = cellString(row["SIGNUP_DATE"])
			}
			chart, err := svg.Line(0, 0, values, labels, svg.Opts{
				Title: "Daily new subscribers",
				Color: req.Scope.Texts().ColorPrimary,
			})
			if err != nil {
				return PageData{}, err
			}
			data.Chart = chart
			return data, nil
		},
	}
}

// SalesByCategoryPage evaluates sales performance per category.
func (s *Service) SalesByCategoryPage() *Page {
	return &Page{
		Slug:        "sales-by-category",
		Name:        "Sales by Category",
		Description: "Analyze sales by each category and evaluate performance.",
		Details: []string{
			"Data: Sales data by category",
			"Visualization: sales chart by category, sales ratio by subcategory",
		},
		Build: func(ctx context.Context, req Request) (PageData, error) {
			year, month := yearMonthParams(req.Params, s.now())
			query := fmt.Sprintf(
				"SELECT CATEGORY, TOTAL_SALES, ORDER_COUNT FROM %s WHERE YEAR = $1 AND MON = $2 ORDER BY TOTAL_SALES DESC",
				warehouseTable(req.Scope.Schema, req.Scope.TablePrefix(), "SALES_BY_CATEGORY"),
			)
			rows, err := s.fetch(ctx, req, "sales_by_category", query, year, month)
			if err != nil {
				return PageData{}, err
			}

			data := PageData{
				Heading:     fmt.Sprintf("%s Sales by Category (%d-%02d)", req.Scope.Texts().Title, year, month),
				Description: "Total sales and order counts per product category.",
				Columns:     []string{"CATEGORY", "TOTAL_SALES", "ORDER_COUNT"},
				Rows:        tabulate(rows, []string{"CATEGORY", "TOTAL_SALES", "ORDER_COUNT"}),
			}
			if len(rows) == 0 {
				data.Notice = "No sales recorded for the selected period."
				return data, nil
			}

			values := make([]float64, len(rows))
			labels := make([]string, len(rows))
			for i, row := range rows {
				values[i] = cellFloat(row["TOTAL_SALES"])
				labels[i] = cellString(row["CATEGORY"])
			}
			chart, err := svg.Bars(0, 0, values, labels, svg.Opts{
				Title: "Sales by category",
				Color: req.Scope.Texts().ColorPrimary,
			})
			if err != nil {
				return PageData{}, err
			}
			data.Chart = chart
			return data, nil
		},
	}
}

// RepurchaseRatePage summarises the order-count distribution of repurchase
// customers.
func (s *Service) RepurchaseRatePage() *Page {
	return &Page{
		Slug:        "repurchase-rate",
		Name:        "Repurchase Customer Rate",
		Description: "Summarize repurchase user data to provide key metrics and statistics.",
		Details: []string{
			"Data: User count data by order frequency",
			"Visualization: order distribution bar graph",
		},
		Build: func(ctx context.Context, req Request) (PageData, error) {
			year, month := yearMonthParams(req.Params, s.now())
			query := fmt.Sprintf(
				"SELECT YEAR, MON, ORDER_COUNT, USER_COUNT FROM %s WHERE YEAR = $1 AND MON = $2 ORDER BY ORDER_COUNT",
				warehouseTable(req.Scope.Schema, req.Scope.TablePrefix(), "USER_MONTHLY_ORDER_DIST"),
			)
			rows, err := s.fetch(ctx, req, "user_monthly_order_dist", query, year, month)
			if err != nil {
				return PageData{}, err
			}

			data := PageData{
				Heading:     fmt.Sprintf("%s Repurchase Customer Ratio and Order Distribution (%d-%02d)", req.Scope.Texts().Title, year, month),
				Description: "How many users placed 1, 2, 3... orders in the selected month.",
				Columns:     []string{"ORDER_COUNT", "USER_COUNT"},
				Rows:        tabulate(rows, []string{"ORDER_COUNT", "USER_COUNT"}),
			}
			if len(rows) == 0 {
				data.Notice = "No data for the selected period."
				return data, nil
			}

			values := make([]float64, len(rows))
			labels := make([]string, len(rows))
			var total, repeat float64
			for i, row := range rows {
				count := cellFloat(row["USER_COUNT"])
				values[i] = count
				labels[i] = cellString(row["ORDER_COUNT"])
				total += count
				if cellFloat(row["ORDER_COUNT"]) >= 2 {
					repeat += count
				}
			}
			if total > 0 {
				data.Description = fmt.Sprintf("%s Repurchase rate: %.1f%% of %d ordering users placed two or more orders.",
					data.Description, repeat/total*100, int64(total))
			}
			chart, err := svg.Bars(0, 0, values, labels, svg.Opts{
				Title: "Users by order count",
				Color: req.Scope.Texts().ColorPrimary,
			})
			if err != nil {
				return PageData{}, err
			}
			data.Chart = chart
			return data, nil
		},
	}
}

// RegionalPurchasePage compares purchase cycles across regions.
func (s *Service) RegionalPurchasePage() *Page {
	return &Page{
		Slug:        "regional-purchase",
		Name:        "Regional Purchase Cycle and Key Products",
		Description: "Analyze regional purchase cycles and popular products to establish regional customized marketing strategies.",
		Details: []string{
			"Data: Regional purchase cycles, regional popular products",
			"Visualization: average purchase cycle comparison, regional TOP products",
		},
		Build: func(ctx context.Context, req Request) (PageData, error) {
			query := fmt.Sprintf(
				"SELECT REGION, AVG_PURCHASE_INTERVAL_DAYS, TOP_PRODUCT FROM %s ORDER BY AVG_PURCHASE_INTERVAL_DAYS",
				warehouseTable(req.Scope.Schema, req.Scope.TablePrefix(), "PURCHASE_INTERVAL_BY_REGION"),
			)
			rows, err := s.fetch(ctx, req, "purchase_interval_by_region", query)
			if err != nil {
				return PageData{}, err
			}

			data := PageData{
				Heading:     fmt.Sprintf("%s Regional Purchase Cycle and Key Products", req.Scope.Texts().Title),
				Description: "Average days between purchases and the best selling product per region.",
				Columns:     []string{"REGION", "AVG_PURCHASE_INTERVAL_DAYS", "TOP_PRODUCT"},
				Rows:        tabulate(rows, []string{"REGION", "AVG_PURCHASE_INTERVAL_DAYS", "TOP_PRODUCT"}),
			}
			if len(rows) == 0 {
				data.Notice = "No regional data available."
				return data, nil
			}

			values := make([]float64, len(rows))
			labels := make([]string, len(rows))
			for i, row := range rows {
				values[i] = cellFloat(row["AVG_PURCHASE_INTERVAL_DAYS"])
				labels[i] = cellString(row["REGION"])
			}
			chart, err := svg.Bars(0, 0, values, labels, svg.Opts{
				Title: "Average purchase interval by region",
				Color: req.Scope.Texts().ColorPrimary,
			})
			if err != nil {
				return PageData{}, err
			}
			data.Chart = chart
			return data, nil
		},
	}
}

// HeavyUsersByMenuPage segments heavy users per menu item with age group and
// gender filters. The summary table is small and refreshed hourly upstream,
// so it is loaded whole through the memo and filtered in memory.
func (s *Service) HeavyUsersByMenuPage() *Page {
	columns := []string{"ITEM_NAME", "AGE_GROUP", "GENDER", "ORDER_YMD", "TOTAL_ORDER_COUNT", "PERCENTAGE_ORDER_COUNT"}
	return &Page{
		Slug:        "heavy-users-by-menu",
		Name:        "Heavy User Segmentation by Menu",
		Description: "Segment heavy users by menu item, age group and gender to identify the core audience of each product.",
		Details: []string{
			"Data: Heavy user order summary by menu, age group and gender",
			"Visualization: order count by menu, filters for age group and gender",
		},
		Build: func(ctx context.Context, req Request) (PageData, error) {
			query := fmt.Sprintf(
				"SELECT ITEM_NAME, AGE_GROUP, GENDER, ORDER_YMD, TOTAL_ORDER_COUNT, PERCENTAGE_ORDER_COUNT FROM %s ORDER BY ORDER_YMD, ITEM_NAME",
				warehouseTable(req.Scope.Schema, req.Scope.TablePrefix(), "HEAVY_USER_ANALYSIS_SUMMARY"),
			)
			rows, err := s.fetch(ctx, req, "heavy_user_analysis_summary", query)
			if err != nil {
				return PageData{}, err
			}

			ageGroup := filterParam(req.Params, "age_group")
			gender := filterParam(req.Params, "gender")
			item := filterParam(req.Params, "item")
			var filtered []warehouse.Row
			for _, row := range rows {
				if ageGroup != "" && cellString(row["AGE_GROUP"]) != ageGroup {
					continue
				}
				if gender != "" && cellString(row["GENDER"]) != gender {
					continue
				}
				if item != "" && cellString(row["ITEM_NAME"]) != item {
					continue
				}
				filtered = append(filtered, row)
			}

			data := PageData{
				Heading:     fmt.Sprintf("%s Heavy User Segmentation by Menu", req.Scope.Texts().Title),
				Description: "Heavy user order counts and their share per menu item.",
				Columns:     columns,
				Rows:        tabulate(filtered, columns),
			}
			if len(rows) == 0 {
				data.Notice = "Heavy user analysis data is not available."
				return data, nil
			}
			if len(filtered) == 0 {
				data.Notice = "No menus match the selected conditions."
				return data, nil
			}

			// Aggregate orders per menu for the chart, keeping first-seen order.
			totals := make(map[string]float64)
			var menus []string
			for _, row := range filtered {
				name := cellString(row["ITEM_NAME"])
				if _, ok := totals[name]; !ok {
					menus = append(menus, name)
				}
				totals[name] += cellFloat(row["TOTAL_ORDER_COUNT"])
			}
			values := make([]float64, len(menus))
			for i, name := range menus {
				values[i] = totals[name]
			}
			chart, err := svg.Bars(0, 0, values, menus, svg.Opts{
				Title: "Heavy user orders by menu",
				Color: req.Scope.Texts().ColorPrimary,
			})
			if err != nil {
				return PageData{}, err
			}
			data.Chart = chart
			return data, nil
		},
	}
}

// filterParam reads an optional filter selection; empty and "All" both mean
// no filtering, matching the selectbox defaults.
func filterParam(params map[string]string, key string) string {
	if v, ok := params[key]; ok && v != "All" {
		return v
	}
	return ""
}

// yearMonthParams reads year/month selections, defaulting to the current
// month. Out-of-range values fall back to the default rather than erroring.
func yearMonthParams(params map[string]string, now time.Time) (int, int) {
	year, month := now.Year(), int(now.Month())
	if raw, ok := params["year"]; ok {
		if v, err := strconv.Atoi(raw); err == nil && v >= 2000 && v <= now.Year() {
			year = v
		}
	}
	if raw, ok := params["month"]; ok {
		if v, err := strconv.Atoi(raw); err == nil && v >= 1 && v <= 12 {
			month = v
		}
	}
	return year, month
}
