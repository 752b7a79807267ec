// Command excelei reads spreadsheet tables into JSON or YAML and exports
// database query results into formatted workbooks.
package main

func main() {
	Execute()
}
