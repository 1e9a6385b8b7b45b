package parser

// SystemMessage is the system instruction sent with every interpretation request.
const SystemMessage = `You are an expert invoice analysis AI specialized in wholesale produce invoices. Your task is to:
1. Extract structured information with 100% accuracy
2. Maintain data integrity across all fields
3. Apply standardized validation rules
4. Handle missing data according to specific rules
5. Ensure all calculations are precise and verified
6.Extract the all the items even it has duplicates and`

// Prompt is the extraction instruction block. The formatted page text is
// appended directly after it to form the user message.
const Prompt = `
DETAILED INVOICE ANALYSIS INSTRUCTIONS:

1. HEADER INFORMATION
   Extract these specific fields:

   A. Basic Invoice Information
      • Supplier Name
        Headers to check:
        - "Vendor:", "Supplier:", "From:", "Sold By:"
        Rules:
        - Use FIRST supplier name found
        - Use EXACTLY same name throughout
        - Don't modify or formalize
      
      • Sold to Address
        Headers to check:
        - "Sold To:", "Bill To:", "Customer:"
        Format:
        - Complete address with all components
        - Include street, city, state, ZIP
      
      • Order Date
        Headers to check:
        - "Order Date:", "Date Ordered:", "PO Date:"
        Format: YYYY-MM-DD
      
      • Ship Date
        Headers to check:
        - "Ship Date:", "Delivery Date:", "Shipped:"
        Format: YYYY-MM-DD
      
      • Invoice Number
        Headers to check:
        - Search for "Invoice Numbers" in the text like "Invoice NO","Invoice No","Invoice Number","Invoice ID"
        - "Invoice #:", "Invoice Number:", "Invoice ID:"
        Rules:
        - Include all digits/characters
        - Keep leading zeros
      
      • Shipping Address
        Headers to check:
        - "Ship To:", "Deliver To:", "Destination:"
        Format:
        - Complete delivery address
        - All address components included
      
      • Total
        Headers to check:
        - "Total:", "Amount Due:", "Balance Due:"
        Rules:
        - Must match sum of line items
        - Include tax if listed
        - Round to 2 decimals

2. LINE ITEM DETAIL
    Extract the all the items even it has duplicates and
   Extract these fields for each item:

   A. Basic Item Information
      • Item Number
        Headers to check:
        -"Product Code:" -"Item Number:" -"SKU:" -"UPC:"
        Rules:
        - Keep full identifier
        - Include leading zeros
      
      • Item Name
        Headers to check:
        - "Description:", "Product:", "Item:"
        Rules:
        - Include full description with measeurement as well
        - Keep original format
      
      • Product Category
        Classify as:
        - PRODUCE: Fresh fruits/vegetables
        - DAIRY: Milk, cheese, yogurt
        - MEAT: Beef, pork, poultry
        - SEAFOOD: Fish, shellfish
        - Beverages: Sodas,juices,water
        - Dry Grocery: Chips, candy, nuts,Canned goods, spices, sauces
        - BAKERY: Bread, pastries, cakes
        - FROZEN: Ice cream, meals, desserts
        - paper goods and Disposables: Bags, napkins, plates, cups, utensils,packing materials
        - liquor: Beer, wine, spirits
        - Chemical: Soaps, detergents, supplies
        - OTHER: Anything not in above categories

   B. Quantity and Measurement Details
      • Quantity Shipped
        Headers to check:
        - "Qty:", "Quantity:", "Shipped:"
        Rules:
        - Must be positive number
        - Default to 1 if missing
      
      • Quantity In a Case
        Headers to check:
        - "Units/Case:", "Pack Size:", "Case Pack:"
        Patterns to check:
        -  24= "24 units"
        - "24/12oz" = 24 units
        - "2/12ct" = 24 units
        Default: 1 if not found
      
      • Measurement Of Each Item
        Headers to check:
        - "Size:", "Weight:", "Volume:"
        Extract from description:
        - "5 LB BAG" → 5
        - "32 OZ PKG" → 32
      

   B. Measurement Units:
      • Measured In - Standard Units:
        
        WEIGHT:
        - pounds: LB, LBS, #, POUND
        - ounces: OZ, OUNCE
        - kilos: KG, KILO
        - grams: G, GM, GRAM

        COUNT:
        - each: EA, PC, CT, COUNT, PIECE
        - case: CS, CASE, BX, BOX
        - dozen: DOZ, DZ
        - pack: PK, PACK, PKG
        - bundle: BDL, BUNDLE

        VOLUME:
        - gallons: GAL, GALLON
        - quarts: QT, QUART
        - pints: PT, PINT
        - fluid_ounces: FL OZ, FLOZ
        - liters: L, LT, LTR
        - milliliters: ML

        CONTAINERS:
        - cans: CN, CAN, #10 CAN
        - jars: JR, JAR
        - bottles: BTL, BOTTLE
        - containers: CTN, CONT
        - tubs: TB, TUB
        - bags: BG, BAG

        PRODUCE:
        - bunch: BN, BCH, BUNCH
        - head: HD, HEAD
        - basket: BSK, BASKET
        - crate: CRT, CRATE
        - carton: CRTN, CARTON
      
      • Total Units Ordered
        Calculate: Measurement of Each Item * Quantity In Case * Quantity Shipped
        Example: 5lb * 10 per case * 2 cases = 100 pounds

   C. Pricing Information
      • Extended Price
        Headers to check:
        - "Ext Price:", "Total:", "Amount:"
        Rules:
        - Must equal Case Price * Quantity Shipped
      
      • Case Price
        Headers to check:
        - "Unit Price:", 
        Rules:
        - Price for single Unit price 
      
      • Cost of a Unit
        Calculate: Extended Price ÷ Total Units Ordered
        Example: $100 ÷ 100 pounds = $1.00/lb
      
      • Currency
        Default: "USD" if not specified

      • Cost of Each Item
        Cost of Each Item is calculated by Cost of Each Item=Cost of a unit* Measurement of each item
        Verfiy by (Extended Price*Mesurement of each item)/Total Units Ordered
        Default: if not specified "N/A"
       

   D. Additional Attributes
      • Catch Weight:
        If the item number is same in the previous item and quantity shipped is different then set "YES" 
         else N/A

      
      • Priced By
       Look for the reference "Measured in" 
        Values:
        - "per pound"
        - "per case"
        - "per each"
        - "per dozen"
        - "per Ounce"
      
      • Splitable
        -Set "YES" if:
        -if you have "YES" reference to Splitable

        Set "NO" if:
        - if you have "NO" reference to Splitable

        Set "NO" if:
        - Bulk only
        - Single unit
      
      • Split Price
        If Splitable = "YES":
        - Calculate: Case Price ÷ Quantity In Case
        If Splitable = "NO":
        - Use "N/A"

3. VALIDATION RULES
   • Numeric Checks:
     - All quantities must be positive
     - All prices must be positive
     - Total must match sum of line items
   
   • Required Fields:
     - Supplier Name
     - Invoice Number
     - Total Amount
     - Item Name
     - Extended Price
   
   • Default Values:
     - Quantity: 1.0
     - Currency: "USD"
     - Split Price: "N/A"
     - Category: "OTHER"

OUTPUT FORMAT:
Return a JSON array containing each invoice as an object matching this template:
{
  "Supplier Name": "",
  "Sold to Address": "",
  "Order Date": "",
  "Ship Date": "",
  "Invoice Number": "",
  "Shipping Address": "",
  "Total": 0,
  "List of Items": [
    {
      "Item Number": "",
      "Item Name": "",
      "Product Category": "",
      "Quantity Shipped": 1.0,
      "Extended Price": 1.0,
      "Quantity In a Case": 1.0,
      "Measurement Of Each Item": 1.0,
      "Measured In": "",
      "Total Units Ordered": 1.0,
      "Case Price": 0,
      "Catch Weight": "",
      "Priced By": "",
      "Splitable": "",
      "Split Price": "N/A",
      "Cost of a Unit": 1.0,
      "Currency": "",
      "Cost of Each Item": 1.0
    }
  ]
}INVOICE TEXT TO PROCESS:
`

// BuildPrompt returns the user message for one chunk of formatted page text.
func BuildPrompt(pageText string) string {
	return Prompt + pageText
}
